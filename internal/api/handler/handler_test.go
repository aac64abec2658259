package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-insight/internal/api/handler"
	"resume-insight/internal/metrics"
	"resume-insight/internal/processor"
	"resume-insight/internal/questionbank"
	"resume-insight/internal/skillverify"
	"resume-insight/internal/types"
)

// stubAnalyzer 记录收到的文件并返回预置结果
type stubAnalyzer struct {
	gotName string
	gotData []byte
	result  *types.ResumeAnalysis
	err     error
}

func (s *stubAnalyzer) AnalyzeUpload(ctx context.Context, filename string, data []byte) (*types.ResumeAnalysis, error) {
	s.gotName, s.gotData = filename, data
	return s.result, s.err
}

func newEngine() *route.Engine {
	return route.NewEngine(config.NewOptions([]config.Option{}))
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func postJSON(engine *route.Engine, path string, payload any) *ut.ResponseRecorder {
	data, _ := json.Marshal(payload)
	return ut.PerformRequest(engine, http.MethodPost, path,
		&ut.Body{Body: bytes.NewReader(data), Len: len(data)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
}

func decodeDetail(t *testing.T, resp *ut.ResponseRecorder) string {
	t.Helper()
	var e handler.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &e))
	return e.Detail
}

func TestHandleAnalyzeResume(t *testing.T) {
	stub := &stubAnalyzer{result: &types.ResumeAnalysis{AnalysisID: "a-1", OverallScore: 73, Skills: []string{"Python"}}}
	engine := newEngine()
	engine.POST("/analyze-resume", handler.NewResumeHandler(stub, 1024).HandleAnalyzeResume)

	body, contentType := multipartBody(t, "file", "cv.pdf", []byte("%PDF-1.4"))
	resp := ut.PerformRequest(engine, http.MethodPost, "/analyze-resume",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
	require.Equal(t, http.StatusOK, resp.Code)

	var got types.ResumeAnalysis
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, "a-1", got.AnalysisID)
	assert.Equal(t, 73, got.OverallScore)
	assert.Equal(t, "cv.pdf", stub.gotName)
	assert.Equal(t, []byte("%PDF-1.4"), stub.gotData)
}

func TestHandleAnalyzeResumeErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{"unsupported", processor.NewValidationError("cv.txt", processor.ErrUnsupportedFileType, ""), http.StatusBadRequest, "Only PDF and DOCX files are supported"},
		{"too large", processor.NewValidationError("cv.pdf", processor.ErrFileTooLarge, ""), http.StatusBadRequest, "Uploaded file is too large"},
		{"empty text", processor.NewExtractError("cv.pdf", "empty"), http.StatusBadRequest, "Could not extract text from uploaded file"},
		{"analysis failed", processor.NewAnalyzeError("cv.pdf", "panic"), http.StatusInternalServerError, "Resume analysis failed"},
		{"unexpected", fmt.Errorf("disk on fire"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newEngine()
			engine.POST("/analyze-resume", handler.NewResumeHandler(&stubAnalyzer{err: tt.err}, 0).HandleAnalyzeResume)

			body, contentType := multipartBody(t, "file", "cv.pdf", []byte("x"))
			resp := ut.PerformRequest(engine, http.MethodPost, "/analyze-resume",
				&ut.Body{Body: body, Len: body.Len()},
				ut.Header{Key: "Content-Type", Value: contentType},
			)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantDetail, decodeDetail(t, resp))
		})
	}
}

func TestHandleAnalyzeResumeMissingFile(t *testing.T) {
	engine := newEngine()
	engine.POST("/analyze-resume", handler.NewResumeHandler(&stubAnalyzer{}, 0).HandleAnalyzeResume)

	body, contentType := multipartBody(t, "document", "cv.pdf", []byte("x"))
	resp := ut.PerformRequest(engine, http.MethodPost, "/analyze-resume",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "File is required", decodeDetail(t, resp))
}

func TestHandleAnalyzeResumeLimitsRead(t *testing.T) {
	stub := &stubAnalyzer{err: processor.NewValidationError("cv.pdf", processor.ErrFileTooLarge, "")}
	engine := newEngine()
	engine.POST("/analyze-resume", handler.NewResumeHandler(stub, 8).HandleAnalyzeResume)

	body, contentType := multipartBody(t, "file", "cv.pdf", bytes.Repeat([]byte("a"), 100))
	resp := ut.PerformRequest(engine, http.MethodPost, "/analyze-resume",
		&ut.Body{Body: body, Len: body.Len()},
		ut.Header{Key: "Content-Type", Value: contentType},
	)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	// 只读取上限加一个字节
	assert.Len(t, stub.gotData, 9)
}

func sampleBanks() *questionbank.MemoryStore {
	return questionbank.NewMemoryStore(
		types.BankRecord{
			Key:   "python",
			Skill: "Python",
			Questions: []types.QuestionRecord{
				{ID: "py-1", Level: "Basic", Question: "What is a decorator?", Keywords: []string{"function", "wrapper"}},
				{ID: "py-2", Question: "What is the GIL?", Keywords: []string{"lock", "thread"}, Marks: 4},
			},
		},
		types.BankRecord{
			Key:   "ml",
			Skill: "Machine Learning",
			Questions: []types.QuestionRecord{
				{ID: "ml-1", Level: "Advanced", Question: "What is overfitting?", Keywords: []string{"training", "generalize"}},
			},
		},
	)
}

func skillEngine(m *metrics.Metrics) *route.Engine {
	h := handler.NewSkillHandler(skillverify.NewResolver(sampleBanks(), nil), m)
	engine := newEngine()
	engine.POST("/skill-verification/matched-skills", h.HandleMatchedSkills)
	engine.POST("/skill-verification/questions", h.HandleQuestions)
	engine.POST("/skill-verification/score", h.HandleScore)
	return engine
}

func TestHandleMatchedSkills(t *testing.T) {
	engine := skillEngine(nil)

	resp := postJSON(engine, "/skill-verification/matched-skills", map[string]any{
		"skills": []string{"Python", "python3", "AI", "Rust", ""},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var got handler.SkillMatchResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	require.Len(t, got.Skills, 3)
	assert.Equal(t, "Python", got.Skills[0].BankSkill)
	assert.Equal(t, "python3", got.Skills[1].ResumeSkill)
	assert.Equal(t, "Machine Learning", got.Skills[2].BankSkill)
	assert.Equal(t, 2, got.Skills[0].QuestionCount)
}

func TestHandleMatchedSkillsEmptyBody(t *testing.T) {
	resp := postJSON(skillEngine(nil), "/skill-verification/matched-skills", map[string]any{})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"skills":[]}`, resp.Body.String())
}

func TestHandleQuestions(t *testing.T) {
	engine := skillEngine(nil)

	resp := postJSON(engine, "/skill-verification/questions", map[string]string{"skill": "py"})
	require.Equal(t, http.StatusOK, resp.Code)
	var list types.QuestionList
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	assert.Equal(t, "Python", list.Skill)
	require.Len(t, list.Questions, 2)
	assert.Equal(t, "Core", list.Questions[1].Level)
	assert.Equal(t, 4.0, list.Questions[1].Marks)
	// 关键词不对外暴露
	assert.NotContains(t, resp.Body.String(), "wrapper")
}

func TestHandleQuestionsErrors(t *testing.T) {
	engine := skillEngine(nil)

	resp := postJSON(engine, "/skill-verification/questions", map[string]string{"skill": "Cobol"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "No question bank found for skill: Cobol", decodeDetail(t, resp))

	resp = postJSON(engine, "/skill-verification/questions", map[string]string{"skill": ""})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "skill is required", decodeDetail(t, resp))
}

func TestHandleScore(t *testing.T) {
	m := metrics.New()
	engine := skillEngine(m)

	resp := postJSON(engine, "/skill-verification/score", map[string]string{
		"skill":       "Python",
		"question_id": "py-1",
		"answer":      "A decorator is a FUNCTION that works as a wrapper.",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var got types.AnswerScoreResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, "py-1", got.QuestionID)
	assert.Equal(t, []string{"function", "wrapper"}, got.FoundKeywords)
	assert.Empty(t, got.MissingKeywords)
	assert.Equal(t, 100.0, got.Percentage)
	assert.Equal(t, types.VerdictStrong, got.Verdict)
	assert.Equal(t, "function, wrapper", got.ExpectedAnswer)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswerVerdicts.WithLabelValues("Strong")))
}

func TestHandleScoreErrors(t *testing.T) {
	engine := skillEngine(nil)
	tests := []struct {
		name       string
		payload    map[string]string
		wantStatus int
		wantDetail string
	}{
		{"unknown skill", map[string]string{"skill": "Go", "question_id": "go-1"}, http.StatusNotFound, "No question bank found for skill: Go"},
		{"unknown question", map[string]string{"skill": "Python", "question_id": "py-9"}, http.StatusNotFound, "Question id not found: py-9"},
		{"missing question id", map[string]string{"skill": "Python"}, http.StatusBadRequest, "question_id is required"},
		{"missing skill", map[string]string{"question_id": "py-1"}, http.StatusBadRequest, "skill is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(engine, "/skill-verification/score", tt.payload)
			assert.Equal(t, tt.wantStatus, resp.Code)
			assert.Equal(t, tt.wantDetail, decodeDetail(t, resp))
		})
	}
}

func TestHandleScoreMalformedJSON(t *testing.T) {
	engine := skillEngine(nil)
	data := []byte(`{"skill":`)
	resp := ut.PerformRequest(engine, http.MethodPost, "/skill-verification/score",
		&ut.Body{Body: bytes.NewReader(data), Len: len(data)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "Invalid request body", decodeDetail(t, resp))
}

func bankEngine(store handler.BankWriter) *route.Engine {
	engine := newEngine()
	engine.PUT("/admin/question-banks/:key", handler.NewBankHandler(store).HandleUpsertBank)
	return engine
}

func putJSON(engine *route.Engine, path string, payload any) *ut.ResponseRecorder {
	data, _ := json.Marshal(payload)
	return ut.PerformRequest(engine, http.MethodPut, path,
		&ut.Body{Body: bytes.NewReader(data), Len: len(data)},
		ut.Header{Key: "Content-Type", Value: "application/json"},
	)
}

func TestHandleUpsertBank(t *testing.T) {
	mem := questionbank.NewMemoryStore()
	store := questionbank.NewCachedStore(mem, 0)
	engine := bankEngine(store)

	resp := putJSON(engine, "/admin/question-banks/golang", map[string]any{
		"skill": "Go",
		"questions": []map[string]any{
			{"id": "go-1", "question": "What is a goroutine?", "keywords": []string{"lightweight", "thread"}},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code)
	var got handler.BankUpsertResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, handler.BankUpsertResponse{Key: "golang", Skill: "Go", QuestionCount: 1}, got)

	// 写入后立即可以解析
	list, err := skillverify.NewResolver(store, nil).Questions(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, "Go", list.Skill)
}

func TestHandleUpsertBankRejectsEmptyBank(t *testing.T) {
	engine := bankEngine(questionbank.NewCachedStore(questionbank.NewMemoryStore(), 0))
	resp := putJSON(engine, "/admin/question-banks/empty", map[string]any{"skill": "Empty"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

// readOnly 只能读取的题库
type readOnly struct{ questionbank.Store }

func TestHandleUpsertBankReadOnly(t *testing.T) {
	store := questionbank.NewCachedStore(readOnly{questionbank.NewMemoryStore()}, 0)
	resp := putJSON(bankEngine(store), "/admin/question-banks/go", map[string]any{
		"questions": []map[string]any{{"id": "q", "question": "q?"}},
	})
	assert.Equal(t, http.StatusNotImplemented, resp.Code)
	assert.Equal(t, "Question bank store is read-only", decodeDetail(t, resp))
}
