package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"resume-insight/internal/types"
)

// ResumeAnalysis 简历分析记录
type ResumeAnalysis struct {
	AnalysisID      string         `gorm:"type:char(36);primaryKey"`
	FileMD5         string         `gorm:"type:char(32);index:idx_resume_analyses_file_md5"`
	SourceFilename  string         `gorm:"type:varchar(255)"`
	ObjectKey       string         `gorm:"type:varchar(512)"` // 原始文件在对象存储中的路径，未归档时为空
	OverallScore    int            `gorm:"not null;index:idx_resume_analyses_score"`
	CategoryScores  datatypes.JSON `gorm:"type:json"`
	SkillsJSON      datatypes.JSON `gorm:"type:json"` // string[]
	Vulnerabilities datatypes.JSON `gorm:"type:json"`
	GapsJSON        datatypes.JSON `gorm:"type:json"`
	AnalyzedAt      time.Time      `gorm:"type:datetime(6);index:idx_resume_analyses_analyzed_at"`
	CreatedAt       time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (ResumeAnalysis) TableName() string {
	return "resume_analyses"
}

// NewResumeAnalysisModel 由分析结果构造数据库记录，章节正文不入库
func NewResumeAnalysisModel(a *types.ResumeAnalysis, objectKey string) (*ResumeAnalysis, error) {
	scores, err := json.Marshal(a.CategoryScores)
	if err != nil {
		return nil, err
	}
	skills, err := toJSON(a.Skills)
	if err != nil {
		return nil, err
	}
	vulns, err := toJSON(a.Vulnerabilities)
	if err != nil {
		return nil, err
	}
	gaps, err := toJSON(a.Gaps)
	if err != nil {
		return nil, err
	}
	return &ResumeAnalysis{
		AnalysisID:      a.AnalysisID,
		FileMD5:         a.FileMD5,
		SourceFilename:  a.SourceFilename,
		ObjectKey:       objectKey,
		OverallScore:    a.OverallScore,
		CategoryScores:  datatypes.JSON(scores),
		SkillsJSON:      skills,
		Vulnerabilities: vulns,
		GapsJSON:        gaps,
		AnalyzedAt:      a.AnalyzedAt,
	}, nil
}

// ToAnalysis 还原为分析结果，章节正文为空
func (r *ResumeAnalysis) ToAnalysis() *types.ResumeAnalysis {
	var scores types.CategoryScores
	if len(r.CategoryScores) > 0 {
		_ = json.Unmarshal(r.CategoryScores, &scores)
	}
	return &types.ResumeAnalysis{
		AnalysisID:      r.AnalysisID,
		OverallScore:    r.OverallScore,
		CategoryScores:  scores,
		Skills:          fromJSON[string](r.SkillsJSON),
		Vulnerabilities: fromJSON[types.Vulnerability](r.Vulnerabilities),
		Gaps:            fromJSON[types.YearGap](r.GapsJSON),
		SourceFilename:  r.SourceFilename,
		FileMD5:         r.FileMD5,
		AnalyzedAt:      r.AnalyzedAt,
	}
}
