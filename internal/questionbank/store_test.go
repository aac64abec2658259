package questionbank

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-insight/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestFileStore_LoadBanks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "python.json", `{
  "skill": "Python",
  "questions": [
    {"id": "py-1", "level": "Basic", "question": "What is a list?", "keywords": ["mutable", "ordered"], "marks": 2}
  ]
}`)
	writeFile(t, dir, "go.yaml", `skill: "  "
questions:
  - id: go-1
    question: What is a goroutine?
    keywords: [lightweight, scheduler]
`)
	writeFile(t, dir, "broken.json", `{"skill": `)
	writeFile(t, dir, "empty.json", `{"skill": "Empty", "questions": []}`)
	writeFile(t, dir, "README.md", "# not a bank")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	banks, err := NewFileStore(dir).LoadBanks(context.Background())
	require.NoError(t, err)
	require.Len(t, banks, 2)

	// 按文件名排序
	assert.Equal(t, "go", banks[0].Key)
	assert.Equal(t, "go", banks[0].Skill, "空的 skill 使用文件名")
	assert.Equal(t, []string{"lightweight", "scheduler"}, banks[0].Questions[0].Keywords)

	assert.Equal(t, "python", banks[1].Key)
	assert.Equal(t, "Python", banks[1].Skill)
	assert.Equal(t, types.QuestionRecord{
		ID: "py-1", Level: "Basic", Question: "What is a list?", Keywords: []string{"mutable", "ordered"}, Marks: 2,
	}, banks[1].Questions[0])
}

// 字段类型不规范的题目按宽松规则解码，题库不会被整体跳过
func TestFileStore_LoadBanksCoercesFieldTypes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.json", `{"skill":"Go","questions":[{"id":1,"question":"What is a goroutine?","keywords":["thread", 2],"marks":"2"}]}`)
	writeFile(t, dir, "rust.yaml", `skill: Rust
questions:
  - id: 10
    question: What is ownership?
    keywords: [borrow, 1]
    marks: lots
`)

	banks, err := NewFileStore(dir).LoadBanks(context.Background())
	require.NoError(t, err)
	require.Len(t, banks, 2)

	assert.Equal(t, "go", banks[0].Key)
	assert.Equal(t, types.QuestionRecord{
		ID: "1", Question: "What is a goroutine?", Keywords: []string{"thread", "2"}, Marks: 2,
	}, banks[0].Questions[0])

	assert.Equal(t, "rust", banks[1].Key)
	assert.Equal(t, types.QuestionRecord{
		ID: "10", Question: "What is ownership?", Keywords: []string{"borrow", "1"},
	}, banks[1].Questions[0])
}

func TestFileStore_MissingDir(t *testing.T) {
	banks, err := NewFileStore(filepath.Join(t.TempDir(), "nope")).LoadBanks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, banks)
}

func TestFileStore_UpsertBank(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "java.yml", "skill: Java\nquestions:\n  - id: j-1\n    question: old\n")
	store := NewFileStore(dir)
	ctx := context.Background()

	bank := types.BankRecord{
		Key:   "java",
		Skill: "Java",
		Questions: []types.QuestionRecord{
			{ID: "j-1", Level: "Core", Question: "What is the JVM?", Keywords: []string{"bytecode"}},
		},
	}
	require.NoError(t, store.UpsertBank(ctx, bank))

	banks, err := store.LoadBanks(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 1)
	assert.Equal(t, bank, banks[0])

	_, err = os.Stat(filepath.Join(dir, "java.yml"))
	assert.True(t, os.IsNotExist(err), "旧的 YAML 文件应被删除")

	assert.ErrorIs(t, store.UpsertBank(ctx, types.BankRecord{Key: "../escape", Questions: bank.Questions}), ErrInvalidBank)
	assert.ErrorIs(t, store.UpsertBank(ctx, types.BankRecord{Key: "empty"}), ErrInvalidBank)
	assert.ErrorIs(t, store.UpsertBank(ctx, types.BankRecord{Questions: bank.Questions}), ErrInvalidBank)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(
		types.BankRecord{Key: "b", Skill: "B", Questions: []types.QuestionRecord{{ID: "1", Question: "q", Keywords: []string{"k"}}}},
		types.BankRecord{Key: "a", Skill: "A", Questions: []types.QuestionRecord{{ID: "1", Question: "q"}}},
	)

	banks, err := store.LoadBanks(ctx)
	require.NoError(t, err)
	require.Len(t, banks, 2)
	assert.Equal(t, "a", banks[0].Key)

	// 返回副本，修改不影响存储
	banks[1].Questions[0].Keywords[0] = "changed"
	again, err := store.LoadBanks(ctx)
	require.NoError(t, err)
	assert.Equal(t, "k", again[1].Questions[0].Keywords[0])

	assert.ErrorIs(t, store.UpsertBank(ctx, types.BankRecord{Key: "c"}), ErrInvalidBank)
}

// 仓库自带的题库必须都能加载并通过校验
func TestBundledBanksAreValid(t *testing.T) {
	banks, err := NewFileStore(filepath.Join("..", "..", "data", "questions")).LoadBanks(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, banks)

	keys := make([]string, 0, len(banks))
	for _, b := range banks {
		require.NoError(t, ValidateBank(b), b.Key)
		keys = append(keys, b.Key)
		for _, q := range b.Questions {
			assert.NotEmpty(t, q.ID, b.Key)
			assert.NotEmpty(t, q.Keywords, q.ID)
		}
	}
	assert.Equal(t, []string{"javascript", "ml", "python", "sql"}, keys)
}
