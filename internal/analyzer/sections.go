package analyzer

import (
	"strings"

	"resume-insight/internal/types"
)

// SectionHeader 某个章节可识别的标题短语
type SectionHeader struct {
	Section  types.SectionType
	Keywords []string
}

// DefaultSectionHeaders 默认标题表
// 表的顺序即匹配优先级：先按章节顺序，再按短语顺序，命中第一个即停止。
// 同一行同时是多个章节的标题时，总是归入表中靠前的章节。
var DefaultSectionHeaders = []SectionHeader{
	{Section: types.SectionEducation, Keywords: []string{"education", "academic", "qualification"}},
	{Section: types.SectionSkills, Keywords: []string{"skills", "technical skills", "tools", "technologies"}},
	{Section: types.SectionProjects, Keywords: []string{"projects", "project", "academic projects"}},
	{Section: types.SectionExperience, Keywords: []string{"experience", "internship", "work experience"}},
}

// SectionDetector 按标题行把文本切分为章节
type SectionDetector struct {
	headers []SectionHeader
}

// NewSectionDetector 使用给定标题表创建检测器，headers 为空时使用默认表
func NewSectionDetector(headers []SectionHeader) *SectionDetector {
	if len(headers) == 0 {
		headers = DefaultSectionHeaders
	}
	normalized := make([]SectionHeader, 0, len(headers))
	for _, h := range headers {
		kws := make([]string, 0, len(h.Keywords))
		for _, kw := range h.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				kws = append(kws, kw)
			}
		}
		normalized = append(normalized, SectionHeader{Section: h.Section, Keywords: kws})
	}
	return &SectionDetector{headers: normalized}
}

// MatchHeader 判断一行是否为章节标题（整行精确匹配，忽略大小写与首尾空白）
func (d *SectionDetector) MatchHeader(line string) (types.SectionType, bool) {
	lower := strings.ToLower(strings.TrimSpace(line))
	if lower == "" {
		return "", false
	}
	for _, h := range d.headers {
		for _, kw := range h.Keywords {
			if lower == kw {
				return h.Section, true
			}
		}
	}
	return "", false
}

// Detect 将文本切分为章节
// 标题行本身不计入任何章节；第一个标题之前的内容被丢弃；每个章节正文最终去掉首尾空白。
// 同一章节标题重复出现时，后续内容继续追加到该章节。
func (d *SectionDetector) Detect(text string) types.SectionMap {
	text = NormalizeText(text)

	bodies := make(map[types.SectionType]*strings.Builder, len(types.AllSections))
	var current types.SectionType
	active := false

	for _, line := range strings.Split(text, "\n") {
		if section, ok := d.MatchHeader(line); ok {
			current = section
			active = true
			continue
		}
		if !active {
			continue
		}
		b, ok := bodies[current]
		if !ok {
			b = &strings.Builder{}
			bodies[current] = b
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	var sections types.SectionMap
	for section, b := range bodies {
		sections.Set(section, strings.TrimSpace(b.String()))
	}
	return sections
}
