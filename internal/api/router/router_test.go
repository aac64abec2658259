package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-insight/internal/api/handler"
	"resume-insight/internal/api/middleware"
	"resume-insight/internal/api/router"
	"resume-insight/internal/config"
	"resume-insight/internal/metrics"
	"resume-insight/internal/questionbank"
	"resume-insight/internal/skillverify"
	"resume-insight/internal/types"
)

type okAnalyzer struct{}

func (okAnalyzer) AnalyzeUpload(ctx context.Context, filename string, data []byte) (*types.ResumeAnalysis, error) {
	return &types.ResumeAnalysis{AnalysisID: "fixed", OverallScore: 50}, nil
}

func newTestServer(t *testing.T, withBank bool) (*metrics.Metrics, func(method, path string, body []byte, headers ...ut.Header) *ut.ResponseRecorder) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.Address = "127.0.0.1:0"
	m := metrics.New()

	store := questionbank.NewCachedStore(questionbank.NewMemoryStore(types.BankRecord{
		Key:   "python",
		Skill: "Python",
		Questions: []types.QuestionRecord{
			{ID: "py-1", Question: "What is a list comprehension?", Keywords: []string{"list", "expression"}},
		},
	}), 0)

	hs := &router.Handlers{
		Resume:        handler.NewResumeHandler(okAnalyzer{}, cfg.MaxUploadBytes()),
		Skill:         handler.NewSkillHandler(skillverify.NewResolver(store, nil), m),
		Metrics:       m,
		Limiter:       middleware.NewClientRateLimiter(0.001, 2, 0),
		AdminKeys:     []string{"admin-key"},
		ExposeMetrics: true,
	}
	if withBank {
		hs.Bank = handler.NewBankHandler(store)
	}
	h := router.NewServer(cfg, hs)

	do := func(method, path string, body []byte, headers ...ut.Header) *ut.ResponseRecorder {
		var b *ut.Body
		if body != nil {
			b = &ut.Body{Body: bytes.NewReader(body), Len: len(body)}
			headers = append(headers, ut.Header{Key: "Content-Type", Value: "application/json"})
		}
		return ut.PerformRequest(h.Engine, method, path, b, headers...)
	}
	return m, do
}

func TestHealthOnBothPrefixes(t *testing.T) {
	_, do := newTestServer(t, false)
	for _, path := range []string{"/health", "/api/v1/health"} {
		resp := do(http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.Code, path)
		assert.JSONEq(t, `{"status":"ok"}`, resp.Body.String())
		assert.NotEmpty(t, resp.Header().Get(middleware.HeaderRequestID))
	}
}

func TestSkillRoutes(t *testing.T) {
	_, do := newTestServer(t, false)

	resp := do(http.MethodPost, "/api/v1/skill-verification/matched-skills", []byte(`{"skills":["Python 3","Go"]}`))
	require.Equal(t, http.StatusOK, resp.Code)
	var matches handler.SkillMatchResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &matches))
	require.Len(t, matches.Skills, 1)
	assert.Equal(t, "Python 3", matches.Skills[0].ResumeSkill)

	resp = do(http.MethodPost, "/skill-verification/questions", []byte(`{"skill":"python"}`))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestScoreIsRateLimited(t *testing.T) {
	m, do := newTestServer(t, false)
	body := []byte(`{"skill":"python","question_id":"py-1","answer":"a list built from an expression"}`)

	for range 2 {
		resp := do(http.MethodPost, "/skill-verification/score", body)
		require.Equal(t, http.StatusOK, resp.Code)
	}
	resp := do(http.MethodPost, "/skill-verification/score", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	// 其他接口不受限流影响
	resp = do(http.MethodPost, "/skill-verification/questions", []byte(`{"skill":"python"}`))
	assert.Equal(t, http.StatusOK, resp.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnswerVerdicts.WithLabelValues("Strong")))
}

func TestAdminRoutes(t *testing.T) {
	_, do := newTestServer(t, true)
	body := []byte(`{"skill":"Go","questions":[{"id":"go-1","question":"What is a channel?","keywords":["goroutine"]}]}`)

	resp := do(http.MethodPut, "/admin/question-banks/golang", body)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = do(http.MethodPut, "/api/v1/admin/question-banks/golang", body, ut.Header{Key: middleware.HeaderAPIKey, Value: "admin-key"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"key":"golang","skill":"Go","question_count":1}`, resp.Body.String())

	resp = do(http.MethodPost, "/skill-verification/questions", []byte(`{"skill":"golang"}`))
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAdminRoutesAbsentWithoutBankHandler(t *testing.T) {
	_, do := newTestServer(t, false)
	resp := do(http.MethodPut, "/admin/question-banks/golang", []byte(`{}`), ut.Header{Key: middleware.HeaderAPIKey, Value: "admin-key"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	_, do := newTestServer(t, false)
	resp := do(http.MethodGet, "/analyze-resume", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}

func TestMetricsCountRoutes(t *testing.T) {
	_, do := newTestServer(t, false)
	do(http.MethodGet, "/health", nil)

	resp := do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `http_requests_total{method="GET",path="/health",status="200"} 1`)
}
