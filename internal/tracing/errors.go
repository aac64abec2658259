package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType span 上的错误分类，对应 error.type 属性
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"     // 上传文件或请求体不合法
	ErrorTypeExtraction    ErrorType = "extraction"     // 文档没有可用文本
	ErrorTypeAnalysis      ErrorType = "analysis"       // 分析器失败
	ErrorTypeQuestionBank  ErrorType = "question_bank"  // 题库读取或写入
	ErrorTypeObjectStorage ErrorType = "object_storage" // MinIO 归档
	ErrorTypeDB            ErrorType = "db"
	ErrorTypeRedis         ErrorType = "redis"
	ErrorTypeRabbitMQ      ErrorType = "rabbitmq"
	ErrorTypeHTTP          ErrorType = "http"
)

// RecordError 记录错误并把 span 状态置为 Error，err 为 nil 时什么也不做
func RecordError(span trace.Span, err error, errorType ErrorType, extra ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	msg := Truncate(err.Error(), MaxErrorLength)
	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", msg),
	)
	span.SetAttributes(extra...)
	span.SetStatus(codes.Error, msg)
}

// RecordHTTPError 记录接口返回的错误响应，4xx 与 5xx 分开统计
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	category := "server_error"
	if statusCode < 500 {
		category = "client_error"
	}
	RecordError(span, err, ErrorTypeHTTP,
		attribute.Int("http.status_code", statusCode),
		attribute.String("error.category", category),
	)
}
