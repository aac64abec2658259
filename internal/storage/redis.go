package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resume-insight/internal/config"
	"resume-insight/internal/constants"
	"resume-insight/internal/tracing"
	"resume-insight/internal/types"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound is returned when a key is not found in Redis.
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("resume-insight/storage/redis")

// Redis wraps the Redis client
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter creates a new Redis client connection
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,

		MaxRetries:      cfg.MaxRetries,
		MinRetryBackoff: time.Duration(cfg.MinRetryBackoffMS) * time.Millisecond,
		MaxRetryBackoff: time.Duration(cfg.MaxRetryBackoffMS) * time.Millisecond,
	})

	// 添加OpenTelemetry钩子, 记录所有Redis操作
	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return NewRedisFromClient(client, cfg), nil
}

// NewRedisFromClient 包装已有客户端
func NewRedisFromClient(client *redis.Client, cfg *config.RedisConfig) *Redis {
	if cfg == nil {
		cfg = &config.RedisConfig{}
	}
	return &Redis{Client: client, config: cfg}
}

// Close closes the Redis client connection
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// AnalysisCacheTTL 分析结果按 MD5 缓存的时间
func (r *Redis) AnalysisCacheTTL() time.Duration {
	hours := r.config.AnalysisCacheHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// Get 获取键的值，键不存在时返回 ErrNotFound
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	if r.Client == nil {
		return "", fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Get(ctx, key).Result()
}

// Set 设置键的值
func (r *Redis) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Set(ctx, key, value, expiration).Err()
}

// GetBankSnapshot 读取题库快照，未命中返回 (nil, false, nil)
func (r *Redis) GetBankSnapshot(ctx context.Context) ([]byte, bool, error) {
	if r.Client == nil {
		return nil, false, fmt.Errorf("redis客户端未初始化")
	}
	data, err := r.Client.Get(ctx, constants.KeyBankSnapshot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("读取题库快照失败: %w", err)
	}
	return data, true, nil
}

// SetBankSnapshot 写入题库快照
func (r *Redis) SetBankSnapshot(ctx context.Context, data []byte, ttl time.Duration) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	if err := r.Client.Set(ctx, constants.KeyBankSnapshot, data, ttl).Err(); err != nil {
		return fmt.Errorf("写入题库快照失败: %w", err)
	}
	return nil
}

// DeleteBankSnapshot 删除题库快照
func (r *Redis) DeleteBankSnapshot(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Del(ctx, constants.KeyBankSnapshot).Err()
}

// GetCachedAnalysis 按文件MD5读取已缓存的分析结果
func (r *Redis) GetCachedAnalysis(ctx context.Context, fileMD5 string) (*types.ResumeAnalysis, bool, error) {
	if r.Client == nil {
		return nil, false, fmt.Errorf("redis客户端未初始化")
	}
	key := fmt.Sprintf(constants.KeyAnalysisByMD5, fileMD5)

	ctx, span := redisTracer.Start(ctx, "Redis.GetCachedAnalysis", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
	)

	data, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
		span.SetStatus(codes.Ok, "key not found")
		return nil, false, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, fmt.Errorf("读取分析缓存失败: %w", err)
	}

	var analysis types.ResumeAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		// 缓存内容损坏视为未命中
		span.RecordError(err)
		return nil, false, nil
	}
	span.SetAttributes(attribute.Bool("db.redis.key_exists", true))
	span.SetStatus(codes.Ok, "")
	return &analysis, true, nil
}

// CacheAnalysis 按文件MD5缓存分析结果
func (r *Redis) CacheAnalysis(ctx context.Context, fileMD5 string, analysis *types.ResumeAnalysis) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("序列化分析结果失败: %w", err)
	}
	key := fmt.Sprintf(constants.KeyAnalysisByMD5, fileMD5)
	if err := r.Client.Set(ctx, key, data, r.AnalysisCacheTTL()).Err(); err != nil {
		return fmt.Errorf("写入分析缓存失败: %w", err)
	}
	return nil
}
