package constants

const (
	// ServiceName 服务名，用于 tracer 与日志
	ServiceName = "resume-insight"

	// ObjectKeyPrefix 原始简历在对象存储中的前缀，格式: originals/{analysisID}{ext}
	ObjectKeyPrefix = "originals/"

	// EventResumeAnalyzed 分析完成事件类型
	EventResumeAnalyzed = "resume.analyzed"
)
