package types

import "time"

// SectionType 表示简历章节类型
type SectionType string

const (
	// SectionEducation 教育经历章节
	SectionEducation SectionType = "education"
	// SectionSkills 技能章节
	SectionSkills SectionType = "skills"
	// SectionProjects 项目经历章节
	SectionProjects SectionType = "projects"
	// SectionExperience 工作/实习经历章节
	SectionExperience SectionType = "experience"
)

// AllSections 固定的章节集合，顺序即输出顺序
var AllSections = []SectionType{SectionEducation, SectionSkills, SectionProjects, SectionExperience}

// SectionMap 章节名到章节正文的映射，四个章节始终存在（可能为空字符串）
type SectionMap struct {
	Education  string `json:"education"`
	Skills     string `json:"skills"`
	Projects   string `json:"projects"`
	Experience string `json:"experience"`
}

// Get 按章节类型取正文，未知章节返回空字符串
func (m SectionMap) Get(section SectionType) string {
	switch section {
	case SectionEducation:
		return m.Education
	case SectionSkills:
		return m.Skills
	case SectionProjects:
		return m.Projects
	case SectionExperience:
		return m.Experience
	}
	return ""
}

// Set 按章节类型写入正文，未知章节被忽略
func (m *SectionMap) Set(section SectionType, body string) {
	switch section {
	case SectionEducation:
		m.Education = body
	case SectionSkills:
		m.Skills = body
	case SectionProjects:
		m.Projects = body
	case SectionExperience:
		m.Experience = body
	}
}

// CategoryScores 各维度得分，取值范围 [0,100]
type CategoryScores struct {
	Education  int `json:"education"`
	Skills     int `json:"skills"`
	Projects   int `json:"projects"`
	Experience int `json:"experience"`
}

// Values 按 AllSections 顺序返回分数
func (c CategoryScores) Values() []int {
	return []int{c.Education, c.Skills, c.Projects, c.Experience}
}

// YearGap 教育经历中两个相邻时间段之间的空档
type YearGap struct {
	From int `json:"from"` // 较早时间段的结束年份
	To   int `json:"to"`   // 较晚时间段的开始年份
}

// Years 空档跨越的年数
func (g YearGap) Years() int {
	return g.To - g.From
}

// VulnerabilityCategory 风险点类别
type VulnerabilityCategory string

const (
	VulnerabilityEducation  VulnerabilityCategory = "education"
	VulnerabilityExperience VulnerabilityCategory = "experience"
	VulnerabilitySkills     VulnerabilityCategory = "skills"
	VulnerabilityGap        VulnerabilityCategory = "gap"
)

// Vulnerability 简历中可能在面试中被追问的薄弱点
type Vulnerability struct {
	Category    VulnerabilityCategory `json:"category"`
	Description string                `json:"description"`
}

// ResumeAnalysis 简历分析结果
type ResumeAnalysis struct {
	AnalysisID      string          `json:"analysis_id,omitempty"`
	OverallScore    int             `json:"overall_score"`
	CategoryScores  CategoryScores  `json:"category_scores"`
	Skills          []string        `json:"skills"`
	Sections        SectionMap      `json:"sections"`
	Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	Gaps            []YearGap       `json:"gaps"`

	// 以下字段仅在上传流程中填充
	SourceFilename string    `json:"source_filename,omitempty"`
	FileMD5        string    `json:"file_md5,omitempty"`
	AnalyzedAt     time.Time `json:"analyzed_at,omitzero"`
}
