package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"resume-insight/internal/types"
)

func TestQuestionBankModelRoundTrip(t *testing.T) {
	rec := types.BankRecord{
		Key:   "python",
		Skill: "Python",
		Questions: []types.QuestionRecord{
			{ID: "py-1", Level: "Core", Question: "What is a list?", Keywords: []string{"mutable", "ordered"}, Marks: 2},
			{ID: "py-2", Question: "What is GIL?"},
		},
	}

	m, err := NewQuestionBankModel(rec)
	require.NoError(t, err)
	require.Len(t, m.Questions, 2)
	assert.Equal(t, 1, m.Questions[1].Position)
	assert.Equal(t, "python", m.Questions[1].BankKey)
	assert.JSONEq(t, `[]`, string(m.Questions[1].KeywordsJSON), "缺失关键词写成空数组")

	back := m.ToBankRecord()
	assert.Equal(t, "Python", back.Skill)
	assert.Equal(t, []string{"mutable", "ordered"}, back.Questions[0].Keywords)
	assert.Empty(t, back.Questions[1].Keywords)
	assert.Equal(t, float64(2), back.Questions[0].Marks)
}

func TestResumeAnalysisModel(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := &types.ResumeAnalysis{
		AnalysisID:      "0190a0b2-0000-7000-8000-000000000000",
		OverallScore:    42,
		CategoryScores:  types.CategoryScores{Education: 50, Skills: 20},
		Skills:          []string{"Docker", "Python"},
		Sections:        types.SectionMap{Education: "B.Tech"},
		Vulnerabilities: []types.Vulnerability{{Category: types.VulnerabilityGap, Description: "gap"}},
		SourceFilename:  "cv.pdf",
		FileMD5:         "d41d8cd98f00b204e9800998ecf8427e",
		AnalyzedAt:      at,
	}

	m, err := NewResumeAnalysisModel(a, "originals/x.pdf")
	require.NoError(t, err)
	assert.Equal(t, "originals/x.pdf", m.ObjectKey)
	assert.JSONEq(t, `[]`, string(m.GapsJSON))

	back := m.ToAnalysis()
	assert.Equal(t, a.CategoryScores, back.CategoryScores)
	assert.Equal(t, a.Skills, back.Skills)
	assert.Equal(t, a.Vulnerabilities, back.Vulnerabilities)
	assert.Empty(t, back.Gaps)
	assert.Empty(t, back.Sections.Education, "章节正文不入库")
	assert.Equal(t, at, back.AnalyzedAt)
}

func TestFromJSONMalformed(t *testing.T) {
	assert.Equal(t, []string{}, fromJSON[string](datatypes.JSON(`{"not":"array"}`)))
	assert.Equal(t, []string{}, fromJSON[string](nil))
}

func TestOutboxMessageMarkResult(t *testing.T) {
	msg, err := NewOutboxMessage("a-1", "resume.analyzed", "events", "resume.analyzed", map[string]int{"score": 7})
	require.NoError(t, err)
	assert.Equal(t, OutboxPending, msg.Status)
	assert.JSONEq(t, `{"score":7}`, string(msg.Payload))

	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	msg.MarkResult(assert.AnError, 2, now)
	assert.Equal(t, OutboxPending, msg.Status)
	assert.Equal(t, 1, msg.RetryCount)
	assert.Nil(t, msg.ProcessedAt)

	msg.MarkResult(nil, 2, now)
	assert.Equal(t, OutboxSent, msg.Status)
	assert.Empty(t, msg.ErrorMessage)
	assert.Equal(t, now, *msg.ProcessedAt)

	failing := &OutboxMessage{Status: OutboxPending, RetryCount: 1}
	failing.MarkResult(assert.AnError, 2, now)
	assert.Equal(t, OutboxFailed, failing.Status)
	assert.Equal(t, assert.AnError.Error(), failing.ErrorMessage)
}
