package handler

import (
	"context"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-insight/internal/metrics"
	"resume-insight/internal/types"
)

// SkillVerifier 技能验证题库查询与答题评分
type SkillVerifier interface {
	MatchSkills(ctx context.Context, skills []string) ([]types.SkillMatch, error)
	Questions(ctx context.Context, skill string) (*types.QuestionList, error)
	ScoreAnswer(ctx context.Context, skill, questionID, answer string) (*types.AnswerScoreResult, error)
}

// SkillMatchRequest 简历技能列表
type SkillMatchRequest struct {
	Skills []string `json:"skills"`
}

// SkillMatchResponse 有题库的技能
type SkillMatchResponse struct {
	Skills []types.SkillMatch `json:"skills"`
}

// SkillQuestionsRequest 按技能取题
type SkillQuestionsRequest struct {
	Skill string `json:"skill" vd:"len($)>0; msg:'skill is required'"`
}

// SkillAnswerScoreRequest 提交答案
type SkillAnswerScoreRequest struct {
	Skill      string `json:"skill" vd:"len($)>0; msg:'skill is required'"`
	QuestionID string `json:"question_id" vd:"len($)>0; msg:'question_id is required'"`
	Answer     string `json:"answer"`
}

// SkillHandler 技能验证接口
type SkillHandler struct {
	verifier SkillVerifier
	metrics  *metrics.Metrics
}

// NewSkillHandler 创建技能验证处理器，m 可以为 nil
func NewSkillHandler(verifier SkillVerifier, m *metrics.Metrics) *SkillHandler {
	return &SkillHandler{verifier: verifier, metrics: m}
}

// HandleMatchedSkills 返回有题库的简历技能
func (h *SkillHandler) HandleMatchedSkills(ctx context.Context, c *app.RequestContext) {
	var req SkillMatchRequest
	if err := c.BindJSON(&req); err != nil {
		abortWithDetail(ctx, c, consts.StatusBadRequest, "Invalid request body")
		return
	}
	matches, err := h.verifier.MatchSkills(ctx, req.Skills)
	if err != nil {
		abortWithError(ctx, c, err, "")
		return
	}
	c.JSON(consts.StatusOK, SkillMatchResponse{Skills: matches})
}

// HandleQuestions 返回技能题库中的题目
func (h *SkillHandler) HandleQuestions(ctx context.Context, c *app.RequestContext) {
	var req SkillQuestionsRequest
	if err := c.BindAndValidate(&req); err != nil {
		abortWithDetail(ctx, c, consts.StatusBadRequest, validationDetail(err))
		return
	}
	list, err := h.verifier.Questions(ctx, req.Skill)
	if err != nil {
		abortWithError(ctx, c, err, req.Skill)
		return
	}
	c.JSON(consts.StatusOK, list)
}

// HandleScore 按关键词给答案打分
func (h *SkillHandler) HandleScore(ctx context.Context, c *app.RequestContext) {
	var req SkillAnswerScoreRequest
	if err := c.BindAndValidate(&req); err != nil {
		abortWithDetail(ctx, c, consts.StatusBadRequest, validationDetail(err))
		return
	}
	result, err := h.verifier.ScoreAnswer(ctx, req.Skill, req.QuestionID, req.Answer)
	if err != nil {
		// 题库缺失时提示技能，题目缺失时提示题目 id
		subject := req.Skill
		if isQuestionMiss(err) {
			subject = req.QuestionID
		}
		abortWithError(ctx, c, err, subject)
		return
	}
	h.metrics.ObserveVerdict(string(result.Verdict))
	c.JSON(consts.StatusOK, result)
}
