package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"resume-insight/internal/api/handler"
	"resume-insight/internal/api/middleware"
	"resume-insight/internal/api/router"
	"resume-insight/internal/config"
	"resume-insight/internal/logger"
	"resume-insight/internal/metrics"
	"resume-insight/internal/outbox"
	"resume-insight/internal/processor"
	"resume-insight/internal/storage"
	"resume-insight/internal/tracing"
)

var version = "1.0.0" //nolint:gochecknoglobals

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	initLogger(cfg.Logger)
	logger.Info().Str("version", version).Str("address", cfg.Server.Address).Msg("配置加载成功")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化链路追踪失败")
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer storageManager.Close()

	m := metrics.New()

	bankStore, err := processor.BuildBankStore(cfg, storageManager, m)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化题库失败")
	}
	resolver := processor.BuildResolver(bankStore, cfg.QuestionBank.Aliases)

	resumeService, err := processor.NewResumeServiceFromConfig(ctx, cfg, storageManager, m)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化简历分析服务失败")
	}
	logger.Info().Msg("简历分析服务初始化成功")

	var relay *outbox.MessageRelay
	if cfg.RabbitMQ.Outbox.Enabled && storageManager.MySQL != nil && storageManager.RabbitMQ != nil {
		relay = outbox.NewMessageRelay(storageManager.MySQL, storageManager.RabbitMQ,
			outbox.WithPollingInterval(config.GetDuration(cfg.RabbitMQ.Outbox.PollInterval, 5*time.Second)),
			outbox.WithBatchSize(cfg.RabbitMQ.Outbox.BatchSize),
			outbox.WithMaxRetries(cfg.RabbitMQ.Outbox.MaxRetries),
		)
		relay.Start(ctx)
	}

	hs := &router.Handlers{
		Resume:        handler.NewResumeHandler(resumeService, cfg.MaxUploadBytes()),
		Skill:         handler.NewSkillHandler(resolver, m),
		Metrics:       m,
		AdminKeys:     cfg.Auth.AdminAPIKeys,
		ExposeMetrics: cfg.Server.EnableMetrics,
	}
	if len(cfg.Auth.AdminAPIKeys) > 0 {
		hs.Bank = handler.NewBankHandler(bankStore)
	} else {
		logger.Info().Msg("未配置 admin_api_keys，题库管理接口不会注册")
	}
	if cfg.RateLimit.Enabled {
		hs.Limiter = middleware.NewClientRateLimiter(
			cfg.RateLimit.RequestsPerSecond,
			cfg.RateLimit.Burst,
			config.GetDuration(cfg.RateLimit.IdleTTL, 10*time.Minute),
		)
	}

	h := router.NewServer(cfg, hs)

	go func() {
		logger.Info().Msgf("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	// 先停止中继，避免关闭连接时仍在投递
	if relay != nil {
		relay.Stop()
	}

	timeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), timeout)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("关闭链路追踪失败")
	}
	logger.Info().Msg("优雅退出完成")
}

// initLogger 初始化 zerolog 并让 hertz 的 hlog 共用同一个记录器
func initLogger(cfg config.LoggerConfig) {
	logger.Init(logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		TimeFormat:   cfg.TimeFormat,
		ReportCaller: cfg.ReportCaller,
	})

	hlog.SetLogger(hertzadapter.From(logger.Logger))
	hlog.SetLevel(hlogLevel(zerolog.GlobalLevel()))
}

func hlogLevel(l zerolog.Level) hlog.Level {
	switch l {
	case zerolog.TraceLevel:
		return hlog.LevelTrace
	case zerolog.DebugLevel:
		return hlog.LevelDebug
	case zerolog.WarnLevel:
		return hlog.LevelWarn
	case zerolog.ErrorLevel:
		return hlog.LevelError
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return hlog.LevelFatal
	default:
		return hlog.LevelInfo
	}
}
