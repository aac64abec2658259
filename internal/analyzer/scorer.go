package analyzer

import (
	"math"
	"strings"
	"unicode/utf8"

	"resume-insight/internal/types"
)

// ScoreConfig 评分阈值
type ScoreConfig struct {
	ShortThreshold          int // 正文字符数低于该值得 50 分
	MediumThreshold         int // 正文字符数低于该值得 75 分，否则 100 分
	PointsPerSkill          int
	PenaltyPerVulnerability int
	MaxPenalty              int
}

// DefaultScoreConfig 默认评分阈值
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		ShortThreshold:          80,
		MediumThreshold:         180,
		PointsPerSkill:          10,
		PenaltyPerVulnerability: 5,
		MaxPenalty:              20,
	}
}

// Options 分析器的全部可替换配置
type Options struct {
	Headers []SectionHeader
	Skills  []SkillTerm
	Score   ScoreConfig // 零值时使用 DefaultScoreConfig
	Gaps    *GapDetector
	Rules   *RuleEngine
}

// Analyzer 串联规范化、章节切分、技能提取、空档检测、风险规则与评分
// 不持有跨调用状态，可被多个请求并发使用。
type Analyzer struct {
	sections *SectionDetector
	skills   *SkillExtractor
	gaps     *GapDetector
	rules    *RuleEngine
	score    ScoreConfig
}

// New 创建分析器，未提供的组件使用默认配置
func New(opts Options) *Analyzer {
	score := opts.Score
	def := DefaultScoreConfig()
	if score == (ScoreConfig{}) {
		score = def
	}
	if score.ShortThreshold <= 0 {
		score.ShortThreshold = def.ShortThreshold
	}
	if score.MediumThreshold <= 0 {
		score.MediumThreshold = def.MediumThreshold
	}
	if score.PointsPerSkill <= 0 {
		score.PointsPerSkill = def.PointsPerSkill
	}
	if score.PenaltyPerVulnerability < 0 {
		score.PenaltyPerVulnerability = def.PenaltyPerVulnerability
	}
	if score.MaxPenalty < 0 {
		score.MaxPenalty = def.MaxPenalty
	}

	gaps := opts.Gaps
	if gaps == nil {
		gaps = NewGapDetector(0, 0, 0)
	}
	rules := opts.Rules
	if rules == nil {
		rules = NewRuleEngine(0, 0)
	}
	return &Analyzer{
		sections: NewSectionDetector(opts.Headers),
		skills:   NewSkillExtractor(opts.Skills),
		gaps:     gaps,
		rules:    rules,
		score:    score,
	}
}

// NewDefault 使用全部默认配置创建分析器
func NewDefault() *Analyzer {
	return New(Options{})
}

// SectionScore 按正文长度给单个章节打分
func (a *Analyzer) SectionScore(body string) int {
	content := strings.TrimSpace(body)
	if content == "" {
		return 0
	}
	length := utf8.RuneCountInString(content)
	switch {
	case length >= a.score.MediumThreshold:
		return 100
	case length >= a.score.ShortThreshold:
		return 75
	default:
		return 50
	}
}

// SkillScore 技能得分：每个技能固定分值，上限 100
func (a *Analyzer) SkillScore(skillCount int) int {
	return min(100, max(0, skillCount*a.score.PointsPerSkill))
}

// OverallScore 四项均分减去风险扣分，四舍六入五成双取整，结果落在 [0,100]
func (a *Analyzer) OverallScore(scores types.CategoryScores, vulnerabilityCount int) int {
	values := scores.Values()
	total := 0
	for _, v := range values {
		total += v
	}
	average := float64(total) / float64(len(values))
	penalty := min(a.score.MaxPenalty, vulnerabilityCount*a.score.PenaltyPerVulnerability)
	overall := int(math.RoundToEven(average - float64(penalty)))
	return min(100, max(0, overall))
}

// Analyze 对整份简历文本执行完整分析
func (a *Analyzer) Analyze(text string) *types.ResumeAnalysis {
	sections := a.sections.Detect(text)
	skills := a.skills.Extract(strings.TrimSpace(sections.Skills + "\n" + text))
	gaps := a.gaps.Detect(sections.Education)
	vulns := a.rules.Evaluate(sections, skills, gaps)

	scores := types.CategoryScores{
		Education:  a.SectionScore(sections.Education),
		Skills:     a.SkillScore(len(skills)),
		Projects:   a.SectionScore(sections.Projects),
		Experience: a.SectionScore(sections.Experience),
	}

	return &types.ResumeAnalysis{
		OverallScore:    a.OverallScore(scores, len(vulns)),
		CategoryScores:  scores,
		Skills:          skills,
		Sections:        sections,
		Vulnerabilities: vulns,
		Gaps:            gaps,
	}
}

// Sections 仅执行章节切分
func (a *Analyzer) Sections(text string) types.SectionMap {
	return a.sections.Detect(text)
}

// Skills 仅执行技能提取
func (a *Analyzer) Skills(text string) []string {
	return a.skills.Extract(text)
}
