package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"resume-insight/internal/types"
)

const (
	DefaultNearEmptyChars = 20
	DefaultMinSkills      = 3
)

// RuleEngine 根据章节、技能和时间空档生成风险点
// 各规则互相独立，输出只取决于输入，每个空档单独生成一条风险点。
type RuleEngine struct {
	NearEmptyChars int // 章节正文少于该字符数视为基本为空
	MinSkills      int // 技能数少于该值时提示技能偏少
}

// NewRuleEngine 创建规则引擎，零值参数使用默认值
func NewRuleEngine(nearEmptyChars, minSkills int) *RuleEngine {
	if nearEmptyChars <= 0 {
		nearEmptyChars = DefaultNearEmptyChars
	}
	if minSkills <= 0 {
		minSkills = DefaultMinSkills
	}
	return &RuleEngine{NearEmptyChars: nearEmptyChars, MinSkills: minSkills}
}

func (r *RuleEngine) nearEmpty(body string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(body)) < r.NearEmptyChars
}

// Evaluate 依次执行固定规则：教育经历、工作经历、技能数量、时间空档
func (r *RuleEngine) Evaluate(sections types.SectionMap, skills []string, gaps []types.YearGap) []types.Vulnerability {
	vulns := []types.Vulnerability{}

	if r.nearEmpty(sections.Education) {
		vulns = append(vulns, types.Vulnerability{
			Category:    types.VulnerabilityEducation,
			Description: "Education section is missing or too brief; add degree, institution and year range.",
		})
	}
	if r.nearEmpty(sections.Experience) {
		vulns = append(vulns, types.Vulnerability{
			Category:    types.VulnerabilityExperience,
			Description: "Experience or internship details are missing or too brief; interviewers may question practical exposure.",
		})
	}
	if len(skills) < r.MinSkills {
		vulns = append(vulns, types.Vulnerability{
			Category:    types.VulnerabilitySkills,
			Description: fmt.Sprintf("Only %d recognizable technical skill(s) found; list at least %d relevant skills.", len(skills), r.MinSkills),
		})
	}
	for _, g := range gaps {
		vulns = append(vulns, types.Vulnerability{
			Category:    types.VulnerabilityGap,
			Description: fmt.Sprintf("Unexplained gap of %d years in education timeline (%d - %d).", g.Years(), g.From, g.To),
		})
	}
	return vulns
}
