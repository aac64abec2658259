package outbox // 发件箱中继：重试投递直接发布失败的事件

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"resume-insight/internal/logger"
	"resume-insight/internal/storage"
	"resume-insight/internal/storage/models"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	defaultMaxRetries      = 5
)

// Store 发件箱存储，由 storage.MySQL 实现
type Store interface {
	ProcessOutbox(ctx context.Context, batchSize int, handle storage.OutboxHandler) (int, error)
}

// Publisher 消息发布，由 storage.RabbitMQ 实现
type Publisher interface {
	PublishMessage(ctx context.Context, exchangeName, routingKey string, message []byte, persistent bool) error
}

var (
	_ Store     = (*storage.MySQL)(nil)
	_ Publisher = (*storage.RabbitMQ)(nil)
)

// Option 中继选项
type Option func(*MessageRelay)

// WithPollingInterval 设置轮询间隔
func WithPollingInterval(d time.Duration) Option {
	return func(r *MessageRelay) {
		if d > 0 {
			r.pollingInterval = d
		}
	}
}

// WithBatchSize 设置每轮处理的消息数
func WithBatchSize(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithMaxRetries 设置消息标记为 FAILED 前的最大投递次数
func WithMaxRetries(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

// MessageRelay 轮询发件箱并把消息发布到 RabbitMQ
type MessageRelay struct {
	store     Store
	publisher Publisher

	pollingInterval time.Duration
	batchSize       int
	maxRetries      int
	now             func() time.Time
	tracer          trace.Tracer

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMessageRelay 创建中继
func NewMessageRelay(store Store, publisher Publisher, opts ...Option) *MessageRelay {
	r := &MessageRelay{
		store:           store,
		publisher:       publisher,
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		maxRetries:      defaultMaxRetries,
		now:             time.Now,
		tracer:          otel.Tracer("outbox-relay"),
		stop:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start 在后台开始轮询，ctx 取消或调用 Stop 后退出
func (r *MessageRelay) Start(ctx context.Context) {
	logger.Info().Dur("interval", r.pollingInterval).Int("batch", r.batchSize).Msg("发件箱中继已启动")
	r.wg.Go(func() {
		ticker := time.NewTicker(r.pollingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-ticker.C:
				if _, err := r.ProcessPending(ctx); err != nil {
					logger.Warn().Err(err).Msg("处理发件箱消息失败")
				}
			}
		}
	})
}

// Stop 停止轮询并等待当前一轮结束，可重复调用
func (r *MessageRelay) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
	logger.Info().Msg("发件箱中继已停止")
}

// ProcessPending 处理一批待投递消息，返回本轮处理的数量
func (r *MessageRelay) ProcessPending(ctx context.Context) (int, error) {
	return r.store.ProcessOutbox(ctx, r.batchSize, r.deliver)
}

func (r *MessageRelay) deliver(ctx context.Context, msg *models.OutboxMessage) {
	ctx, span := r.tracer.Start(ctx, "outbox.Deliver", trace.WithAttributes(
		attribute.Int64("outbox.message_id", int64(msg.ID)),
		attribute.String("outbox.event_type", msg.EventType),
		attribute.Int("outbox.retry_count", msg.RetryCount),
	))
	defer span.End()

	err := r.publisher.PublishMessage(ctx, msg.TargetExchange, msg.TargetRoutingKey, []byte(msg.Payload), true)
	msg.MarkResult(err, r.maxRetries, r.now())

	log := logger.Ctx(ctx).With().Uint("message_id", msg.ID).Str("aggregate_id", msg.AggregateID).Logger()
	switch {
	case err == nil:
		log.Debug().Msg("发件箱消息投递成功")
	case msg.Status == models.OutboxFailed:
		span.RecordError(err)
		log.Error().Err(err).Int("retries", msg.RetryCount).Msg("发件箱消息多次投递失败，已放弃")
	default:
		span.RecordError(err)
		log.Warn().Err(err).Int("retries", msg.RetryCount).Msg("发件箱消息投递失败，稍后重试")
	}
}
