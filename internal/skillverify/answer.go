package skillverify

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"resume-insight/internal/types"
)

const (
	StrongRatio   = 0.7
	ModerateRatio = 0.4
)

var nonAlnumRunRe = regexp.MustCompile(`[^a-z0-9]+`)

// normalizeAnswerText 小写后把每段连续的非字母数字字符替换为一个空格
func normalizeAnswerText(s string) string {
	return nonAlnumRunRe.ReplaceAllString(strings.ToLower(s), " ")
}

// round2 按 x 的精确二进制值保留两位小数，恰好的中点取偶数
// 与 Python round(x, 2) 一致：1.005 实际略小于 1.005，结果为 1.0。
func round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 2, 64), 64)
	if err != nil {
		return x
	}
	return f
}

// VerdictFor 按命中比例给出评价
func VerdictFor(ratio float64) types.Verdict {
	switch {
	case ratio >= StrongRatio:
		return types.VerdictStrong
	case ratio >= ModerateRatio:
		return types.VerdictModerate
	default:
		return types.VerdictNeedsImprovement
	}
}

// ScoreAnswer 按关键词包含关系给答案打分
// 关键词与答案做同样的规范化后按子串判断，不要求整词匹配；规范化后为空的关键词不计入总数。
// 命中与缺失列表保持关键词原有的顺序和写法。
func ScoreAnswer(answer string, keywords []string, marks float64) types.ScoredAnswer {
	cleaned := " " + normalizeAnswerText(answer) + " "
	found := make([]string, 0, len(keywords))
	missing := make([]string, 0, len(keywords))

	for _, kw := range keywords {
		key := strings.TrimSpace(normalizeAnswerText(kw))
		if key == "" {
			continue
		}
		if strings.Contains(cleaned, key) {
			found = append(found, kw)
		} else {
			missing = append(missing, kw)
		}
	}

	ratio := 0.0
	if total := len(found) + len(missing); total > 0 {
		ratio = float64(len(found)) / float64(total)
	}
	return types.ScoredAnswer{
		FoundKeywords:   found,
		MissingKeywords: missing,
		Ratio:           ratio,
		MarksAwarded:    round2(marks * ratio),
		TotalMarks:      marks,
		Percentage:      round2(ratio * 100),
		Verdict:         VerdictFor(ratio),
	}
}
