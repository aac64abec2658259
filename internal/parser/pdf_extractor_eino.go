package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"

	"resume-insight/internal/logger"
)

// EinoPDFTextExtractor 使用 Eino PDF Parser 提取文本
type EinoPDFTextExtractor struct {
	parser *pdf.PDFParser
	logger zerolog.Logger
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFTextExtractor)

// WithEinoLogger 配置自定义日志记录器
func WithEinoLogger(l zerolog.Logger) EinoPDFOption {
	return func(e *EinoPDFTextExtractor) {
		e.logger = l
	}
}

// NewEinoPDFTextExtractor 初始化 Eino PDF 文本提取器
// 不按页面分割，获取整个文档的连续文本
func NewEinoPDFTextExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFTextExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{
		ToPages: false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFTextExtractor{
		parser: p,
		logger: logger.Logger.With().Str("component", "eino_pdf").Logger(),
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// PDFText 一次 PDF 解析的结果
type PDFText struct {
	Text     string
	Segments int // 解析器返回的文档数，不分页时为 1
	Took     time.Duration
}

// Extract 实现 Engine
func (e *EinoPDFTextExtractor) Extract(ctx context.Context, data []byte, uri string) (string, error) {
	res, err := e.ExtractTextFromReader(ctx, bytes.NewReader(data), uri)
	return res.Text, err
}

// ExtractTextFromReader 从 io.Reader 中解析简历 PDF
func (e *EinoPDFTextExtractor) ExtractTextFromReader(ctx context.Context, reader io.Reader, uri string) (PDFText, error) {
	start := time.Now()
	docs, err := e.parser.Parse(ctx, reader,
		einoParser.WithURI(uri),
		einoParser.WithExtraMeta(map[string]any{"source": "resume_upload"}),
	)
	res := PDFText{Took: time.Since(start), Segments: len(docs)}
	if err != nil {
		e.logger.Warn().Err(err).Str("uri", uri).Dur("took", res.Took).Msg("解析PDF失败")
		return res, fmt.Errorf("eino PDF parser failed for %s: %w", uri, err)
	}
	if len(docs) == 0 {
		return res, fmt.Errorf("eino PDF parser returned no documents for %s", uri)
	}

	// 正常情况下只有一个文档，多个时按顺序拼接
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	res.Text = strings.Join(parts, "\n")

	e.logger.Debug().Str("uri", uri).Int("chars", len(res.Text)).Dur("took", res.Took).Msg("PDF提取完成")
	return res, nil
}
