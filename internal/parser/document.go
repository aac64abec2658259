package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"resume-insight/internal/logger"
)

// DocumentType 支持的文档类型
type DocumentType string

const (
	DocumentPDF  DocumentType = "pdf"
	DocumentDOCX DocumentType = "docx"
)

// DefaultExtractTimeout 单个文档的默认提取时限
const DefaultExtractTimeout = 30 * time.Second

// ErrExtractTimeout 提取超过时限
var ErrExtractTimeout = errors.New("text extraction timed out")

// DetectDocumentType 按扩展名（忽略大小写）判断文档类型
func DetectDocumentType(filename string) (DocumentType, bool) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(filename))) {
	case ".pdf":
		return DocumentPDF, true
	case ".docx":
		return DocumentDOCX, true
	}
	return "", false
}

// ContentType 文档的 MIME 类型
func (t DocumentType) ContentType() string {
	switch t {
	case DocumentPDF:
		return "application/pdf"
	case DocumentDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

// Engine 某一种文档格式的文本提取实现
type Engine interface {
	Extract(ctx context.Context, data []byte, uri string) (string, error)
}

// EngineFunc 函数形式的 Engine
type EngineFunc func(ctx context.Context, data []byte, uri string) (string, error)

// Extract 实现 Engine
func (f EngineFunc) Extract(ctx context.Context, data []byte, uri string) (string, error) {
	return f(ctx, data, uri)
}

// Extractor 按文档类型分派到具体引擎
// 提取失败不是错误：记录日志后返回空字符串，由调用方按"没有文本"处理。
type Extractor struct {
	engines map[DocumentType]Engine
	timeout time.Duration
	log     zerolog.Logger
}

// ExtractorOption 配置 Extractor
type ExtractorOption func(*Extractor)

// WithEngine 为文档类型注册引擎
func WithEngine(t DocumentType, engine Engine) ExtractorOption {
	return func(e *Extractor) {
		e.engines[t] = engine
	}
}

// WithExtractTimeout 设置单个文档的提取时限，<=0 时使用默认值
func WithExtractTimeout(d time.Duration) ExtractorOption {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithExtractorLogger 设置日志记录器
func WithExtractorLogger(l zerolog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.log = l
	}
}

// NewExtractor 创建分派器
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		engines: make(map[DocumentType]Engine),
		timeout: DefaultExtractTimeout,
		log:     logger.Logger.With().Str("component", "text_extractor").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Supports 是否注册了该类型的引擎
func (e *Extractor) Supports(t DocumentType) bool {
	_, ok := e.engines[t]
	return ok
}

type extractResult struct {
	text string
	err  error
}

// ExtractText 提取文档纯文本，任何失败都返回 ""
// 底层引擎是一次不可取消的阻塞调用，这里只负责在超时后放弃等待。
func (e *Extractor) ExtractText(ctx context.Context, data []byte, t DocumentType, uri string) string {
	text, err := e.Extract(ctx, data, t, uri)
	if err != nil {
		e.log.Warn().Err(err).Str("uri", uri).Str("type", string(t)).Msg("文本提取失败")
		return ""
	}
	return text
}

// Extract 与 ExtractText 相同，但返回失败原因
func (e *Extractor) Extract(ctx context.Context, data []byte, t DocumentType, uri string) (string, error) {
	engine, ok := e.engines[t]
	if !ok {
		return "", fmt.Errorf("no extraction engine for document type %q", t)
	}
	if len(data) == 0 {
		return "", errors.New("empty document")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan extractResult, 1)
	go func() {
		defer func() {
			// 解析损坏的文件时部分引擎会 panic
			if r := recover(); r != nil {
				done <- extractResult{err: fmt.Errorf("extraction engine panicked: %v", r)}
			}
		}()
		text, err := engine.Extract(ctx, data, uri)
		done <- extractResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		e.log.Debug().
			Str("uri", uri).
			Str("type", string(t)).
			Int("chars", len(res.text)).
			Dur("took", time.Since(start)).
			Msg("文本提取完成")
		return res.text, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrExtractTimeout, e.timeout)
		}
		return "", ctx.Err()
	}
}
