package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"resume-insight/internal/analyzer"
	"resume-insight/internal/config"
	"resume-insight/internal/constants"
	"resume-insight/internal/logger"
	"resume-insight/internal/metrics"
	"resume-insight/internal/parser"
	"resume-insight/internal/storage"
	"resume-insight/internal/storage/models"
	"resume-insight/internal/tracing"
	"resume-insight/internal/types"
	"resume-insight/pkg/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// 定义tracer
var tracer = otel.Tracer("processor")

const defaultSideEffectTimeout = 5 * time.Second

// 分析结果标签，与 metrics 中的 outcome 一致
const (
	outcomeOK       = "ok"
	outcomeCached   = "cached"
	outcomeRejected = "rejected"
	outcomeFailed   = "failed"
)

// ResumeService 上传简历分析服务
// 核心分析是纯函数；缓存、归档、入库、事件发布均为可选的旁路，失败不影响返回结果。
type ResumeService struct {
	extractor TextExtractor
	analyzer  ResumeAnalyzer

	cache     AnalysisCache
	archive   OriginalArchive
	repo      AnalysisRepository
	publisher EventPublisher
	metrics   *metrics.Metrics

	outbox           OutboxWriter
	outboxExchange   string
	outboxRoutingKey string

	maxUploadBytes    int64
	archiveOriginals  bool
	sideEffectTimeout time.Duration
	newID             func() (string, error)
	now               func() time.Time
}

// NewResumeService 创建服务，未提供分析器时使用默认规则
func NewResumeService(opts ...ServiceOption) *ResumeService {
	s := &ResumeService{
		archiveOriginals:  true,
		sideEffectTimeout: defaultSideEffectTimeout,
		newID:             utils.NewAnalysisID,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.analyzer == nil {
		s.analyzer = analyzer.NewDefault()
	}
	return s
}

// NewResumeServiceFromConfig 按配置和已初始化的存储组装服务
// st 中为 nil 的组件对应的旁路会被跳过。
func NewResumeServiceFromConfig(ctx context.Context, cfg *config.Config, st *storage.Storage, m *metrics.Metrics) (*ResumeService, error) {
	extractor, err := BuildExtractor(ctx, cfg.Extractor)
	if err != nil {
		return nil, err
	}
	opts := []ServiceOption{
		WithExtractor(extractor),
		WithAnalyzer(BuildAnalyzer(cfg.Analyzer)),
		WithMetrics(m),
		WithMaxUploadBytes(cfg.MaxUploadBytes()),
		WithArchiveOriginals(cfg.Upload.ArchiveOriginals),
	}
	// 逐个判断，避免把 nil 指针包装成非 nil 接口
	if st != nil {
		if st.Redis != nil {
			opts = append(opts, WithCache(st.Redis))
		}
		if st.MinIO != nil {
			opts = append(opts, WithArchive(st.MinIO))
		}
		if st.MySQL != nil {
			opts = append(opts, WithRepository(st.MySQL))
		}
		if st.RabbitMQ != nil {
			opts = append(opts, WithPublisher(st.RabbitMQ))
		}
		if cfg.RabbitMQ.Outbox.Enabled && st.RabbitMQ != nil && st.MySQL != nil {
			opts = append(opts, WithOutbox(st.MySQL, cfg.RabbitMQ.EventsExchange, cfg.RabbitMQ.AnalyzedRoutingKey))
		}
	}
	return NewResumeService(opts...), nil
}

// AnalyzeUpload 分析上传的简历文件
func (s *ResumeService) AnalyzeUpload(ctx context.Context, filename string, data []byte) (*types.ResumeAnalysis, error) {
	ctx, span := tracer.Start(ctx, "ResumeService.AnalyzeUpload",
		trace.WithAttributes(
			attribute.String("resume.filename", tracing.MaskFilename(filename)),
			attribute.Int("resume.size_bytes", len(data)),
		))
	defer span.End()
	log := logger.Ctx(ctx).With().Str("filename", filename).Logger()

	docType, ok := parser.DetectDocumentType(filename)
	if !ok || s.extractor == nil || !s.extractor.Supports(docType) {
		err := NewValidationError(filename, ErrUnsupportedFileType, "")
		return nil, s.reject(span, err)
	}
	if s.maxUploadBytes > 0 && int64(len(data)) > s.maxUploadBytes {
		err := NewValidationError(filename, ErrFileTooLarge, fmt.Sprintf("%d > %d bytes", len(data), s.maxUploadBytes))
		return nil, s.reject(span, err)
	}

	fileMD5 := utils.CalculateMD5(data)
	span.SetAttributes(attribute.String("resume.md5", fileMD5))

	if s.cache != nil {
		cached, hit, err := s.cache.GetCachedAnalysis(ctx, fileMD5)
		if err != nil {
			log.Warn().Err(err).Str("md5", fileMD5).Msg("读取分析缓存失败，继续分析")
		} else if hit {
			log.Info().Str("md5", fileMD5).Str("analysis_id", cached.AnalysisID).Msg("命中分析缓存")
			span.SetAttributes(attribute.Bool("resume.cached", true))
			s.metrics.ObserveAnalysis(outcomeCached, cached.OverallScore)
			return cached, nil
		}
	}

	text := s.extractor.ExtractText(ctx, data, docType, filename)
	if strings.TrimSpace(text) == "" {
		err := NewExtractError(filename, "提取文本为空")
		return nil, s.reject(span, err)
	}

	result, err := s.safeAnalyze(filename, text)
	if err != nil {
		log.Error().Err(err).Msg("简历分析失败")
		tracing.RecordError(span, err, tracing.ErrorTypeAnalysis)
		s.metrics.ObserveAnalysis(outcomeFailed, 0)
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		err = NewAnalyzeError(filename, "生成分析ID失败: "+err.Error())
		tracing.RecordError(span, err, tracing.ErrorTypeAnalysis)
		s.metrics.ObserveAnalysis(outcomeFailed, 0)
		return nil, err
	}
	result.AnalysisID = id
	result.FileMD5 = fileMD5
	result.SourceFilename = filename
	result.AnalyzedAt = s.now().UTC()
	span.SetAttributes(
		attribute.String("resume.analysis_id", id),
		attribute.Int("resume.overall_score", result.OverallScore),
	)

	s.runSideEffects(ctx, result, data)

	log.Info().
		Str("analysis_id", id).
		Int("overall_score", result.OverallScore).
		Int("skills", len(result.Skills)).
		Int("vulnerabilities", len(result.Vulnerabilities)).
		Msg("简历分析完成")
	s.metrics.ObserveAnalysis(outcomeOK, result.OverallScore)
	return result, nil
}

// AnalyzeText 只运行核心分析，不做去重和旁路写入
func (s *ResumeService) AnalyzeText(ctx context.Context, text string) (*types.ResumeAnalysis, error) {
	_, span := tracer.Start(ctx, "ResumeService.AnalyzeText",
		trace.WithAttributes(attribute.Int("resume.text_length", len(text))))
	defer span.End()

	result, err := s.safeAnalyze("", text)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeAnalysis)
		s.metrics.ObserveAnalysis(outcomeFailed, 0)
		return nil, err
	}
	s.metrics.ObserveAnalysis(outcomeOK, result.OverallScore)
	return result, nil
}

// safeAnalyze 分析过程中的 panic 只影响当前请求
func (s *ResumeService) safeAnalyze(filename, text string) (result *types.ResumeAnalysis, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("filename", filename).Msg("分析过程发生panic")
			result, err = nil, NewAnalyzeError(filename, fmt.Sprint(r))
		}
	}()
	result = s.analyzer.Analyze(text)
	if result == nil {
		return nil, NewAnalyzeError(filename, "分析器未返回结果")
	}
	return result, nil
}

func (s *ResumeService) reject(span trace.Span, err error) error {
	errType := tracing.ErrorTypeValidation
	if errors.Is(err, ErrEmptyText) {
		errType = tracing.ErrorTypeExtraction
	}
	tracing.RecordError(span, err, errType)
	s.metrics.ObserveAnalysis(outcomeRejected, 0)
	logger.Warn().Err(err).Msg("拒绝上传的简历")
	return err
}

// runSideEffects 先归档原始文件（事件和记录需要对象键），再并发入库、缓存、发布事件
// 请求被取消后旁路仍在超时时间内完成。
func (s *ResumeService) runSideEffects(ctx context.Context, result *types.ResumeAnalysis, data []byte) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "ResumeService.sideEffects")
	defer span.End()
	log := logger.Ctx(ctx).With().Str("analysis_id", result.AnalysisID).Logger()

	var objectKey string
	if s.archive != nil && s.archiveOriginals {
		key, err := s.archive.ArchiveOriginal(ctx, result.AnalysisID, result.SourceFilename, data)
		if err != nil {
			log.Warn().Err(err).Msg("归档原始简历失败")
			tracing.RecordError(span, err, tracing.ErrorTypeObjectStorage)
			s.metrics.ObserveSideEffectFailure("minio")
		} else {
			objectKey = key
		}
	}

	var wg sync.WaitGroup
	if s.repo != nil {
		wg.Go(func() {
			record, err := models.NewResumeAnalysisModel(result, objectKey)
			if err == nil {
				err = s.repo.SaveResumeAnalysis(ctx, record)
			}
			if err != nil {
				log.Warn().Err(err).Msg("保存分析记录失败")
				tracing.RecordError(span, err, tracing.ErrorTypeDB)
				s.metrics.ObserveSideEffectFailure("mysql")
			}
		})
	}
	if s.cache != nil {
		wg.Go(func() {
			if err := s.cache.CacheAnalysis(ctx, result.FileMD5, result); err != nil {
				log.Warn().Err(err).Msg("缓存分析结果失败")
				tracing.RecordError(span, err, tracing.ErrorTypeRedis)
				s.metrics.ObserveSideEffectFailure("redis")
			}
		})
	}
	if s.publisher != nil {
		wg.Go(func() {
			event := &storage.ResumeAnalyzedEvent{
				EventType:          constants.EventResumeAnalyzed,
				AnalysisID:         result.AnalysisID,
				FileMD5:            result.FileMD5,
				SourceFilename:     result.SourceFilename,
				ObjectKey:          objectKey,
				OverallScore:       result.OverallScore,
				Skills:             result.Skills,
				GapCount:           len(result.Gaps),
				VulnerabilityCount: len(result.Vulnerabilities),
				AnalyzedAt:         result.AnalyzedAt,
			}
			if err := s.publisher.PublishAnalyzed(ctx, event); err != nil {
				log.Warn().Err(err).Msg("发布分析完成事件失败")
				tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
				s.metrics.ObserveSideEffectFailure("rabbitmq")
				s.enqueueOutbox(ctx, event)
			}
		})
	}
	wg.Wait()
}

// enqueueOutbox 把发布失败的事件交给发件箱，未配置时直接返回
func (s *ResumeService) enqueueOutbox(ctx context.Context, event *storage.ResumeAnalyzedEvent) {
	if s.outbox == nil {
		return
	}
	log := logger.Ctx(ctx).With().Str("analysis_id", event.AnalysisID).Logger()
	msg, err := models.NewOutboxMessage(event.AnalysisID, event.EventType, s.outboxExchange, s.outboxRoutingKey, event)
	if err == nil {
		err = s.outbox.EnqueueOutbox(ctx, msg)
	}
	if err != nil {
		log.Error().Err(err).Msg("事件写入发件箱失败，该事件将丢失")
		s.metrics.ObserveSideEffectFailure("outbox")
		return
	}
	log.Info().Msg("事件已写入发件箱，稍后重试投递")
}
