package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resume-insight/internal/config"
	"resume-insight/internal/logger"
	"resume-insight/internal/parser"
)

// BuildExtractor 按配置组装 PDF 和 DOCX 的提取引擎
// pdf_engine: eino(默认) | ledongthuc | tika；docx_engine: docx(默认) | tika
func BuildExtractor(ctx context.Context, cfg config.ExtractorConfig) (*parser.Extractor, error) {
	var tika *parser.TikaExtractor
	tikaClient := func() *parser.TikaExtractor {
		if tika == nil {
			tika = parser.NewTikaExtractor(cfg.TikaURL,
				parser.WithAnnotations(cfg.TikaAnnotations),
				parser.WithTikaTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
			)
		}
		return tika
	}

	var pdfEngine parser.Engine
	switch strings.ToLower(strings.TrimSpace(cfg.PDFEngine)) {
	case "", "eino":
		eino, err := parser.NewEinoPDFTextExtractor(ctx)
		if err != nil {
			return nil, fmt.Errorf("初始化Eino PDF解析器失败: %w", err)
		}
		pdfEngine = eino
	case "ledongthuc":
		pdfEngine = parser.NewLedongthucPDFExtractor()
	case "tika":
		if cfg.TikaURL == "" {
			return nil, fmt.Errorf("pdf_engine=tika 需要配置 tika_url")
		}
		pdfEngine = tikaClient().ForType(parser.DocumentPDF)
	default:
		return nil, fmt.Errorf("未知的 pdf_engine: %q", cfg.PDFEngine)
	}

	var docxEngine parser.Engine
	switch strings.ToLower(strings.TrimSpace(cfg.DocxEngine)) {
	case "", "docx":
		docxEngine = parser.NewDocxExtractor()
	case "tika":
		if cfg.TikaURL == "" {
			return nil, fmt.Errorf("docx_engine=tika 需要配置 tika_url")
		}
		docxEngine = tikaClient().ForType(parser.DocumentDOCX)
	default:
		return nil, fmt.Errorf("未知的 docx_engine: %q", cfg.DocxEngine)
	}

	logger.Info().Str("pdf_engine", cfg.PDFEngine).Str("docx_engine", cfg.DocxEngine).Msg("文本提取器已初始化")
	return parser.NewExtractor(
		parser.WithEngine(parser.DocumentPDF, pdfEngine),
		parser.WithEngine(parser.DocumentDOCX, docxEngine),
		parser.WithExtractTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second),
	), nil
}
