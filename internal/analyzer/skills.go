package analyzer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// SkillTerm 词表中的一个技能：Pattern 为小写匹配形式，Display 为规范展示形式
type SkillTerm struct {
	Pattern string
	Display string
}

// DefaultSkillPatterns 默认技能词表（小写）
var DefaultSkillPatterns = []string{
	"java", "python", "c", "c++", "javascript",
	"html", "css", "react", "nodejs",
	"spring", "spring boot", "mysql", "mongodb",
	"git", "github", "docker",
	"machine learning", "deep learning", "nlp",
	"tensorflow", "pytorch",
}

// TermsFromPatterns 由小写短语生成词表，展示形式为首字母大写
func TermsFromPatterns(patterns []string) []SkillTerm {
	terms := make([]SkillTerm, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		terms = append(terms, SkillTerm{Pattern: p, Display: TitleCase(p)})
	}
	return terms
}

// TitleCase 每个字母段的首字母大写、其余小写，段以非字母字符分隔
// 例如 "c++" -> "C++", "spring boot" -> "Spring Boot", "nodejs" -> "Nodejs"
func TitleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

type compiledTerm struct {
	display string
	re      *regexp.Regexp
}

// SkillExtractor 在文本中查找词表内的技能
type SkillExtractor struct {
	terms []compiledTerm
}

// NewSkillExtractor 编译词表，terms 为空时使用默认词表
func NewSkillExtractor(terms []SkillTerm) *SkillExtractor {
	if len(terms) == 0 {
		terms = TermsFromPatterns(DefaultSkillPatterns)
	}
	compiled := make([]compiledTerm, 0, len(terms))
	for _, t := range terms {
		pattern := strings.ToLower(t.Pattern)
		if pattern == "" {
			continue
		}
		display := t.Display
		if display == "" {
			display = TitleCase(pattern)
		}
		// 两侧都不能紧邻单词字符，短语中的符号按字面匹配
		re := regexp.MustCompile(`(?:^|[^a-z0-9_])` + regexp.QuoteMeta(pattern) + `(?:$|[^a-z0-9_])`)
		compiled = append(compiled, compiledTerm{display: display, re: re})
	}
	return &SkillExtractor{terms: compiled}
}

// Extract 返回去重并按字典序排序的技能展示名称，未知技能直接忽略
func (e *SkillExtractor) Extract(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	found := make([]string, 0)
	for _, t := range e.terms {
		if _, ok := seen[t.display]; ok {
			continue
		}
		if t.re.MatchString(lower) {
			seen[t.display] = struct{}{}
			found = append(found, t.display)
		}
	}
	sort.Strings(found)
	return found
}
