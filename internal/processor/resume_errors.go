package processor

import (
	"errors"
	"fmt"

	"resume-insight/internal/skillverify"
)

// 定义基础错误类型，消息直接作为接口错误返回给调用方
var (
	ErrUnsupportedFileType = errors.New("Only PDF and DOCX files are supported")
	ErrFileTooLarge        = errors.New("Uploaded file is too large")
	ErrEmptyText           = errors.New("Could not extract text from uploaded file")
	ErrAnalysisFailed      = errors.New("Resume analysis failed")

	// 题库查找失败，和 skillverify 中的错误相同
	ErrBankNotFound     = skillverify.ErrBankNotFound
	ErrQuestionNotFound = skillverify.ErrQuestionNotFound
)

// ResumeProcessError 包含详细错误信息的自定义错误
type ResumeProcessError struct {
	Filename string
	Op       string
	BaseErr  error
	Detail   string
}

func (e *ResumeProcessError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 文件:%s): %s", e.BaseErr, e.Op, e.Filename, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 文件:%s)", e.BaseErr, e.Op, e.Filename)
}

func (e *ResumeProcessError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *ResumeProcessError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// 错误构造函数
func NewValidationError(filename string, base error, detail string) error {
	return &ResumeProcessError{Filename: filename, Op: "validate", BaseErr: base, Detail: detail}
}

func NewExtractError(filename, detail string) error {
	return &ResumeProcessError{Filename: filename, Op: "extract", BaseErr: ErrEmptyText, Detail: detail}
}

func NewAnalyzeError(filename, detail string) error {
	return &ResumeProcessError{Filename: filename, Op: "analyze", BaseErr: ErrAnalysisFailed, Detail: detail}
}

// PublicMessage 返回可直接展示给调用方的错误消息
func PublicMessage(err error) string {
	for _, base := range []error{ErrUnsupportedFileType, ErrFileTooLarge, ErrEmptyText, ErrAnalysisFailed} {
		if errors.Is(err, base) {
			return base.Error()
		}
	}
	return "Internal server error"
}
