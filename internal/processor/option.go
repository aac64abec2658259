package processor

import (
	"time"

	"resume-insight/internal/metrics"
)

// ServiceOption ResumeService 选项函数类型
type ServiceOption func(*ResumeService)

// ----- 组件选项 -----

// WithExtractor 设置文本提取器
func WithExtractor(extractor TextExtractor) ServiceOption {
	return func(s *ResumeService) {
		s.extractor = extractor
	}
}

// WithAnalyzer 设置简历分析器
func WithAnalyzer(analyzer ResumeAnalyzer) ServiceOption {
	return func(s *ResumeService) {
		s.analyzer = analyzer
	}
}

// WithCache 设置分析结果缓存，用于按文件去重
func WithCache(cache AnalysisCache) ServiceOption {
	return func(s *ResumeService) {
		s.cache = cache
	}
}

// WithArchive 设置原始文件归档
func WithArchive(archive OriginalArchive) ServiceOption {
	return func(s *ResumeService) {
		s.archive = archive
	}
}

// WithRepository 设置分析记录持久化
func WithRepository(repo AnalysisRepository) ServiceOption {
	return func(s *ResumeService) {
		s.repo = repo
	}
}

// WithPublisher 设置事件发布
func WithPublisher(pub EventPublisher) ServiceOption {
	return func(s *ResumeService) {
		s.publisher = pub
	}
}

// WithOutbox 发布失败的事件写入发件箱，exchange 和 routingKey 为重试时的投递目标
func WithOutbox(w OutboxWriter, exchange, routingKey string) ServiceOption {
	return func(s *ResumeService) {
		s.outbox = w
		s.outboxExchange = exchange
		s.outboxRoutingKey = routingKey
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *ResumeService) {
		s.metrics = m
	}
}

// ----- 设置选项 -----

// WithMaxUploadBytes 设置上传文件大小上限，<=0 表示不限制
func WithMaxUploadBytes(n int64) ServiceOption {
	return func(s *ResumeService) {
		s.maxUploadBytes = n
	}
}

// WithArchiveOriginals 设置是否归档原始文件
func WithArchiveOriginals(enabled bool) ServiceOption {
	return func(s *ResumeService) {
		s.archiveOriginals = enabled
	}
}

// WithSideEffectTimeout 设置旁路写入的超时时间
func WithSideEffectTimeout(d time.Duration) ServiceOption {
	return func(s *ResumeService) {
		if d > 0 {
			s.sideEffectTimeout = d
		}
	}
}

// WithIDGenerator 替换分析ID生成器
func WithIDGenerator(gen func() (string, error)) ServiceOption {
	return func(s *ResumeService) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) ServiceOption {
	return func(s *ResumeService) {
		if now != nil {
			s.now = now
		}
	}
}
