package analyzer

import (
	"regexp"
	"sort"
	"strconv"

	"resume-insight/internal/types"
)

const (
	DefaultMinYear       = 1900
	DefaultMaxYear       = 2100
	DefaultMaxAllowedGap = 1
)

var (
	// 前后不能紧邻数字，避免从电话号码、学号里截出年份
	yearTokenRe = regexp.MustCompile(`(?:^|[^0-9])([0-9]{4})(?:[^0-9]|$)`)
	// 两个年份之间只允许出现连接符，例如 "2016 - 2018"、"2016–2018"、"2016 to 2018"
	rangeJoinerRe = regexp.MustCompile(`(?i)^\s*(?:-|–|—|to|till|until)\s*$`)
)

// yearSpan 一个教育时间段，单独出现的年份视为起止相同的时间段
type yearSpan struct {
	start, end int
}

type yearToken struct {
	year       int
	start, end int // 在文本中的字节区间
}

// GapDetector 检测教育经历中的时间空档
type GapDetector struct {
	MinYear       int
	MaxYear       int
	MaxAllowedGap int
}

// NewGapDetector 创建检测器，零值参数使用默认值
func NewGapDetector(minYear, maxYear, maxAllowedGap int) *GapDetector {
	if minYear <= 0 {
		minYear = DefaultMinYear
	}
	if maxYear <= 0 {
		maxYear = DefaultMaxYear
	}
	if maxAllowedGap <= 0 {
		maxAllowedGap = DefaultMaxAllowedGap
	}
	return &GapDetector{MinYear: minYear, MaxYear: maxYear, MaxAllowedGap: maxAllowedGap}
}

// extractYears 按出现顺序提取合理范围内的四位年份
func (d *GapDetector) extractYears(text string) []yearToken {
	var tokens []yearToken
	// 边界字符会被正则消耗，逐段向后扫描以免漏掉紧挨着的年份（如 "2016-2018"）
	offset := 0
	for offset < len(text) {
		loc := yearTokenRe.FindStringSubmatchIndex(text[offset:])
		if loc == nil {
			break
		}
		s, e := offset+loc[2], offset+loc[3]
		year, err := strconv.Atoi(text[s:e])
		if err == nil && year >= d.MinYear && year <= d.MaxYear {
			tokens = append(tokens, yearToken{year: year, start: s, end: e})
		}
		offset = e
	}
	return tokens
}

// spans 把相邻且由连接符相连的两个年份合并为一个时间段
// 倒序的时间段（结束早于开始）视为数据错误，直接忽略
func (d *GapDetector) spans(text string, tokens []yearToken) []yearSpan {
	var spans []yearSpan
	for i := 0; i < len(tokens); i++ {
		cur := tokens[i]
		if i+1 < len(tokens) && rangeJoinerRe.MatchString(text[cur.end:tokens[i+1].start]) {
			next := tokens[i+1]
			i++
			if next.year < cur.year {
				continue
			}
			spans = append(spans, yearSpan{start: cur.year, end: next.year})
			continue
		}
		spans = append(spans, yearSpan{start: cur.year, end: cur.year})
	}
	return spans
}

// Detect 返回按时间先后排列的空档列表
// 时间段按开始年份排序后依次比较：下一段开始年份减去此前最晚结束年份大于 MaxAllowedGap 即为空档。
// 时间段内部的跨度（例如四年本科）不算空档，重叠的时间段也不会产生空档。
func (d *GapDetector) Detect(text string) []types.YearGap {
	spans := d.spans(text, d.extractYears(text))
	if len(spans) < 2 {
		return []types.YearGap{}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end < spans[j].end
	})

	gaps := []types.YearGap{}
	latestEnd := spans[0].end
	for _, s := range spans[1:] {
		if s.start-latestEnd > d.MaxAllowedGap {
			gaps = append(gaps, types.YearGap{From: latestEnd, To: s.start})
		}
		if s.end > latestEnd {
			latestEnd = s.end
		}
	}
	return gaps
}
