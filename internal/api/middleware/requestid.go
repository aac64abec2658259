// Package middleware 定义 HTTP 服务使用的 hertz 中间件
package middleware

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/google/uuid"

	"resume-insight/internal/logger"
)

const (
	// HeaderRequestID 请求 ID 头
	HeaderRequestID = "X-Request-ID"
	// KeyRequestID 请求 ID 在 RequestContext 中的键
	KeyRequestID = "request_id"
)

// RequestID 沿用调用方传入的请求 ID，没有时生成一个，并写入响应头和日志上下文
func RequestID() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		id := string(c.GetHeader(HeaderRequestID))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(KeyRequestID, id)
		c.Response.Header.Set(HeaderRequestID, id)
		c.Next(logger.WithRequestID(ctx, id))
	}
}

// GetRequestID 读取当前请求的 ID
func GetRequestID(c *app.RequestContext) string {
	return c.GetString(KeyRequestID)
}
