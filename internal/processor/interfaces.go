package processor

import (
	"context"

	"resume-insight/internal/parser"
	"resume-insight/internal/storage"
	"resume-insight/internal/storage/models"
	"resume-insight/internal/types"
)

// TextExtractor 文档文本提取，失败时返回空字符串
type TextExtractor interface {
	Supports(t parser.DocumentType) bool
	ExtractText(ctx context.Context, data []byte, t parser.DocumentType, uri string) string
}

// ResumeAnalyzer 纯文本分析
type ResumeAnalyzer interface {
	Analyze(text string) *types.ResumeAnalysis
}

//
// 以下为上传流程的可选副作用，任意一个为 nil 时跳过
//

// AnalysisCache 按文件MD5缓存分析结果
type AnalysisCache interface {
	GetCachedAnalysis(ctx context.Context, fileMD5 string) (*types.ResumeAnalysis, bool, error)
	CacheAnalysis(ctx context.Context, fileMD5 string, analysis *types.ResumeAnalysis) error
}

// OriginalArchive 归档原始文件
type OriginalArchive interface {
	ArchiveOriginal(ctx context.Context, analysisID, filename string, data []byte) (string, error)
}

// AnalysisRepository 持久化分析记录
type AnalysisRepository interface {
	SaveResumeAnalysis(ctx context.Context, record *models.ResumeAnalysis) error
}

// EventPublisher 发布分析完成事件
type EventPublisher interface {
	PublishAnalyzed(ctx context.Context, event *storage.ResumeAnalyzedEvent) error
}

// OutboxWriter 事件发布失败时写入发件箱，由中继重试
type OutboxWriter interface {
	EnqueueOutbox(ctx context.Context, msg *models.OutboxMessage) error
}

var (
	_ OutboxWriter       = (*storage.MySQL)(nil)
	_ TextExtractor      = (*parser.Extractor)(nil)
	_ AnalysisCache      = (*storage.Redis)(nil)
	_ OriginalArchive    = (*storage.MinIO)(nil)
	_ AnalysisRepository = (*storage.MySQL)(nil)
	_ EventPublisher     = (*storage.RabbitMQ)(nil)
)
