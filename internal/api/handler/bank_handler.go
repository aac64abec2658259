package handler

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-insight/internal/questionbank"
	"resume-insight/internal/types"
)

// BankWriter 可写题库，写入后负责使缓存失效
type BankWriter interface {
	questionbank.Writer
	Writable() bool
}

// BankUpsertRequest 题库文件同样的结构，存储键取自路径参数
type BankUpsertRequest struct {
	Skill     string                 `json:"skill"`
	Questions []types.QuestionRecord `json:"questions"`
}

// BankUpsertResponse 写入结果
type BankUpsertResponse struct {
	Key           string `json:"key"`
	Skill         string `json:"skill"`
	QuestionCount int    `json:"question_count"`
}

// BankHandler 题库管理接口
type BankHandler struct {
	store BankWriter
}

// NewBankHandler 创建题库管理处理器
func NewBankHandler(store BankWriter) *BankHandler {
	return &BankHandler{store: store}
}

// HandleUpsertBank 写入或替换 :key 对应的题库
func (h *BankHandler) HandleUpsertBank(ctx context.Context, c *app.RequestContext) {
	if h.store == nil || !h.store.Writable() {
		abortWithError(ctx, c, questionbank.ErrReadOnly, "")
		return
	}

	key := strings.TrimSpace(c.Param("key"))
	var req BankUpsertRequest
	if err := c.BindJSON(&req); err != nil {
		abortWithDetail(ctx, c, consts.StatusBadRequest, "Invalid request body")
		return
	}
	skill := strings.TrimSpace(req.Skill)
	if skill == "" {
		skill = key
	}
	bank := types.BankRecord{Key: key, Skill: skill, Questions: req.Questions}
	if err := questionbank.ValidateBank(bank); err != nil {
		abortWithError(ctx, c, err, key)
		return
	}

	if err := h.store.UpsertBank(ctx, bank); err != nil {
		abortWithError(ctx, c, err, key)
		return
	}
	hlog.CtxInfof(ctx, "题库已更新: key=%s skill=%s questions=%d", key, skill, len(bank.Questions))
	c.JSON(consts.StatusOK, BankUpsertResponse{Key: key, Skill: skill, QuestionCount: len(bank.Questions)})
}
