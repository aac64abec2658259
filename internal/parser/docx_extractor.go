package parser

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	// 段落结束和显式换行都转成换行，制表符转成空格
	docxBreakRe = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	docxTabRe   = regexp.MustCompile(`<w:tab\s*/>`)
	docxTagRe   = regexp.MustCompile(`<[^>]*>`)
)

// DocxExtractor 读取 DOCX 正文，把段落 XML 展开为逐行文本
type DocxExtractor struct{}

// NewDocxExtractor 创建提取器
func NewDocxExtractor() *DocxExtractor {
	return &DocxExtractor{}
}

// Extract 实现 Engine
func (DocxExtractor) Extract(ctx context.Context, data []byte, uri string) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx %s: %w", uri, err)
	}
	defer doc.Close()

	return FlattenDocxXML(doc.Editable().GetContent()), nil
}

// FlattenDocxXML 去掉 WordprocessingML 标签，保留段落换行
func FlattenDocxXML(content string) string {
	content = docxBreakRe.ReplaceAllString(content, "\n")
	content = docxTabRe.ReplaceAllString(content, " ")
	content = docxTagRe.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
