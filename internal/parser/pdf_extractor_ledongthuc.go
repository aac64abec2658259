package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// LedongthucPDFExtractor 纯 Go 的 PDF 文本提取，逐页读取纯文本
type LedongthucPDFExtractor struct{}

// NewLedongthucPDFExtractor 创建提取器
func NewLedongthucPDFExtractor() *LedongthucPDFExtractor {
	return &LedongthucPDFExtractor{}
}

// Extract 实现 Engine，页与页之间以换行分隔
func (LedongthucPDFExtractor) Extract(ctx context.Context, data []byte, uri string) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf %s: %w", uri, err)
	}

	var b strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d of %s: %w", i, uri, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}
