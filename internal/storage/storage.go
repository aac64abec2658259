package storage

import (
	"context"
	"errors"
	"fmt"

	"resume-insight/internal/config"
	"resume-insight/internal/logger"
)

// Storage 存储管理器，聚合所有外部依赖；未启用或初始化失败的组件为 nil
type Storage struct {
	// 对象存储
	MinIO *MinIO
	// 消息队列
	RabbitMQ *RabbitMQ
	// 关系型数据库
	MySQL *MySQL
	// 键值存储
	Redis *Redis
}

// NewStorage 按配置初始化启用的组件
// 单个组件失败只记录警告；所有启用的组件都失败时返回错误。
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}

	s := &Storage{}
	var (
		enabled int
		failed  []error
	)
	try := func(name string, init func() error) {
		enabled++
		if err := init(); err != nil {
			logger.Warn().Err(err).Str("component", name).Msg("存储组件初始化失败，相关功能将被跳过")
			failed = append(failed, fmt.Errorf("%s: %w", name, err))
			return
		}
		logger.Info().Str("component", name).Msg("存储组件初始化成功")
	}

	if cfg.MinIO.Enabled {
		try("minio", func() (err error) {
			s.MinIO, err = NewMinIO(ctx, &cfg.MinIO)
			return err
		})
	}
	if cfg.RabbitMQ.Enabled {
		try("rabbitmq", func() (err error) {
			s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
			return err
		})
	}
	if cfg.MySQL.Enabled {
		try("mysql", func() (err error) {
			s.MySQL, err = NewMySQL(&cfg.MySQL)
			return err
		})
	}
	if cfg.Redis.Enabled {
		try("redis", func() (err error) {
			s.Redis, err = NewRedisAdapter(&cfg.Redis)
			return err
		})
	}

	if enabled > 0 && len(failed) == enabled {
		return nil, fmt.Errorf("所有存储组件初始化失败: %w", errors.Join(failed...))
	}
	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s == nil {
		return
	}
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
	// MinIO 客户端无需显式关闭
}
