package handler

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-insight/internal/types"
)

// UploadAnalyzer 上传简历分析
type UploadAnalyzer interface {
	AnalyzeUpload(ctx context.Context, filename string, data []byte) (*types.ResumeAnalysis, error)
}

// ResumeHandler 简历分析接口
type ResumeHandler struct {
	analyzer       UploadAnalyzer
	maxUploadBytes int64
}

// NewResumeHandler 创建简历处理器，maxUploadBytes<=0 表示不限制读取大小
func NewResumeHandler(analyzer UploadAnalyzer, maxUploadBytes int64) *ResumeHandler {
	return &ResumeHandler{analyzer: analyzer, maxUploadBytes: maxUploadBytes}
}

// HandleAnalyzeResume 处理 multipart 上传的 file 字段
func (h *ResumeHandler) HandleAnalyzeResume(ctx context.Context, c *app.RequestContext) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		abortWithDetail(ctx, c, consts.StatusBadRequest, "File is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		abortWithError(ctx, c, fmt.Errorf("打开上传文件失败: %w", err), "")
		return
	}
	defer file.Close()

	// 多读一个字节，超出上限的文件交给服务层判定
	var reader io.Reader = file
	if h.maxUploadBytes > 0 {
		reader = io.LimitReader(file, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		abortWithError(ctx, c, fmt.Errorf("读取上传文件失败: %w", err), "")
		return
	}

	hlog.CtxDebugf(ctx, "收到简历上传: %s (%d bytes)", fileHeader.Filename, len(data))
	result, err := h.analyzer.AnalyzeUpload(ctx, fileHeader.Filename, data)
	if err != nil {
		abortWithError(ctx, c, err, fileHeader.Filename)
		return
	}
	c.JSON(consts.StatusOK, result)
}
