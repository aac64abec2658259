package router

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/middlewares/server/recovery"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/cloudwego/hertz/pkg/route"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"

	"resume-insight/internal/api/handler"
	"resume-insight/internal/api/middleware"
	"resume-insight/internal/config"
	"resume-insight/internal/metrics"
)

// Handlers 路由依赖的处理器和中间件组件，Bank 为 nil 时不注册管理接口
type Handlers struct {
	Resume  *handler.ResumeHandler
	Skill   *handler.SkillHandler
	Bank    *handler.BankHandler
	Metrics *metrics.Metrics
	Limiter *middleware.ClientRateLimiter
	// AdminKeys 管理接口的 API Key
	AdminKeys []string
	// ExposeMetrics 是否注册 /metrics
	ExposeMetrics bool
}

// NewServer 创建 hertz 服务并注册全局中间件和路由
func NewServer(cfg *config.Config, hs *Handlers) *server.Hertz {
	tracer, tracingCfg := hertztracing.NewServerTracer()

	// multipart 上限在文件上限之外留出表单开销
	bodyLimit := int(cfg.MaxUploadBytes()) + 1<<20

	h := server.New(
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
		server.WithMaxRequestBodySize(bodyLimit),
		server.WithExitWaitTime(time.Duration(cfg.Server.ShutdownTimeoutSeconds)*time.Second),
		tracer,
	)
	h.Use(
		recovery.Recovery(),
		hertztracing.ServerMiddleware(tracingCfg),
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.Metrics(hs.Metrics),
	)
	RegisterRoutes(h, hs)
	return h
}

// RegisterRoutes 注册 API 路由，根路径和 /api/v1 下各一份
func RegisterRoutes(h *server.Hertz, hs *Handlers) {
	register(&h.RouterGroup, hs)
	register(h.Group("/api/v1"), hs)

	if hs.ExposeMetrics && hs.Metrics != nil {
		h.GET("/metrics", adaptor.HertzHandler(hs.Metrics.Handler()))
	}
}

func register(g *route.RouterGroup, hs *Handlers) {
	// 添加健康检查
	g.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	if hs.Resume != nil {
		g.POST("/analyze-resume", hs.Resume.HandleAnalyzeResume)
	}

	if hs.Skill != nil {
		sv := g.Group("/skill-verification")
		sv.POST("/matched-skills", hs.Skill.HandleMatchedSkills)
		sv.POST("/questions", hs.Skill.HandleQuestions)
		// 评分接口按客户端限流
		sv.POST("/score", middleware.RateLimit(hs.Limiter, hs.Metrics), hs.Skill.HandleScore)
	}

	if hs.Bank != nil {
		admin := g.Group("/admin", middleware.AdminAuth(hs.AdminKeys))
		admin.PUT("/question-banks/:key", hs.Bank.HandleUpsertBank)
	}
}
