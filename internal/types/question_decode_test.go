package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestQuestionRecordLenientJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want QuestionRecord
	}{
		{
			"numeric id and string marks",
			`{"id": 1, "question": "What is a goroutine?", "keywords": ["thread"], "marks": "2"}`,
			QuestionRecord{ID: "1", Question: "What is a goroutine?", Keywords: []string{"thread"}, Marks: 2},
		},
		{
			"non-string keywords",
			`{"id": "k-1", "level": 3, "question": "Q", "keywords": [404, true, null, "http"], "marks": 1.5}`,
			QuestionRecord{ID: "k-1", Level: "3", Question: "Q", Keywords: []string{"404", "true", "http"}, Marks: 1.5},
		},
		{
			"unparsable marks fall back to undeclared",
			`{"id": "m", "question": "Q", "marks": "many"}`,
			QuestionRecord{ID: "m", Question: "Q"},
		},
		{
			"negative marks",
			`{"id": "m", "question": "Q", "marks": -4}`,
			QuestionRecord{ID: "m", Question: "Q"},
		},
		{
			"single keyword string",
			`{"id": "s", "question": "Q", "keywords": "closure"}`,
			QuestionRecord{ID: "s", Question: "Q", Keywords: []string{"closure"}},
		},
		{
			"object fields are dropped",
			`{"id": {"x": 1}, "question": ["a"]}`,
			QuestionRecord{},
		},
		{"not an object", `"py-1"`, QuestionRecord{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got QuestionRecord
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuestionRecordLenientYAML(t *testing.T) {
	var bank struct {
		Questions []QuestionRecord `yaml:"questions"`
	}
	in := `questions:
  - id: 7
    level: Core
    question: What is a slice?
    keywords: [array, 3, len]
    marks: "4"
  - id: go-2
    question: true
    marks: [1]
`
	require.NoError(t, yaml.Unmarshal([]byte(in), &bank))
	require.Len(t, bank.Questions, 2)
	assert.Equal(t, QuestionRecord{
		ID: "7", Level: "Core", Question: "What is a slice?", Keywords: []string{"array", "3", "len"}, Marks: 4,
	}, bank.Questions[0])
	assert.Equal(t, QuestionRecord{ID: "go-2", Question: "true"}, bank.Questions[1])
}

func TestQuestionRecordRoundTripKeepsShape(t *testing.T) {
	rec := QuestionRecord{ID: "py-1", Level: "Basic", Question: "Q", Keywords: []string{"a"}, Marks: 2}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"py-1","level":"Basic","question":"Q","keywords":["a"],"marks":2}`, string(data))

	var back QuestionRecord
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec, back)
}
