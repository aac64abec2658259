package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.opentelemetry.io/otel/trace"

	"resume-insight/internal/processor"
	"resume-insight/internal/questionbank"
	"resume-insight/internal/tracing"
)

// ErrorResponse 接口错误响应，detail 直接展示给调用方
type ErrorResponse struct {
	Detail string `json:"detail"`
}

func abortWithDetail(ctx context.Context, c *app.RequestContext, status int, detail string) {
	tracing.RecordHTTPError(trace.SpanFromContext(ctx), errors.New(detail), status)
	c.AbortWithStatusJSON(status, ErrorResponse{Detail: detail})
}

// abortWithError 按错误类别映射状态码：输入问题 400，查找不到 404，其余 500
func abortWithError(ctx context.Context, c *app.RequestContext, err error, subject string) {
	switch {
	case errors.Is(err, processor.ErrUnsupportedFileType),
		errors.Is(err, processor.ErrFileTooLarge),
		errors.Is(err, processor.ErrEmptyText):
		abortWithDetail(ctx, c, consts.StatusBadRequest, processor.PublicMessage(err))
	case errors.Is(err, processor.ErrBankNotFound):
		abortWithDetail(ctx, c, consts.StatusNotFound, fmt.Sprintf("No question bank found for skill: %s", subject))
	case errors.Is(err, processor.ErrQuestionNotFound):
		abortWithDetail(ctx, c, consts.StatusNotFound, fmt.Sprintf("Question id not found: %s", subject))
	case errors.Is(err, questionbank.ErrInvalidBank):
		abortWithDetail(ctx, c, consts.StatusBadRequest, err.Error())
	case errors.Is(err, questionbank.ErrReadOnly):
		abortWithDetail(ctx, c, consts.StatusNotImplemented, "Question bank store is read-only")
	case errors.Is(err, processor.ErrAnalysisFailed):
		hlog.CtxErrorf(ctx, "分析失败: %v", err)
		abortWithDetail(ctx, c, consts.StatusInternalServerError, processor.PublicMessage(err))
	default:
		hlog.CtxErrorf(ctx, "请求处理失败: %v", err)
		abortWithDetail(ctx, c, consts.StatusInternalServerError, "Internal server error")
	}
}

func isQuestionMiss(err error) bool {
	return errors.Is(err, processor.ErrQuestionNotFound)
}

// validationDetail 校验失败时返回 vd 标签中的 msg，其余绑定错误统一提示
func validationDetail(err error) string {
	if msg := strings.TrimSpace(err.Error()); strings.HasSuffix(msg, "is required") {
		return msg
	}
	return "Invalid request body"
}
