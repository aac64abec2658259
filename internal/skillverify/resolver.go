package skillverify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"resume-insight/internal/questionbank"
	"resume-insight/internal/types"
)

// DefaultLevel 题目未声明难度时使用的难度
const DefaultLevel = "Core"

var (
	// ErrBankNotFound 没有与技能匹配的题库
	ErrBankNotFound = errors.New("question bank not found")
	// ErrQuestionNotFound 题库中没有该题目
	ErrQuestionNotFound = errors.New("question not found")
)

// Alias 技能别名，From 与 To 均为规范化后的标识
type Alias struct {
	From string
	To   string
}

// DefaultAliases 默认别名表，按顺序匹配
var DefaultAliases = []Alias{
	{From: "ml", To: "ml"},
	{From: "machinelearning", To: "ml"},
	{From: "artificialintelligence", To: "ml"},
	{From: "ai", To: "ml"},
	{From: "py", To: "python"},
	{From: "python3", To: "python"},
	{From: "js", To: "javascript"},
	{From: "ecmascript", To: "javascript"},
}

// NormalizeSkill 技能标识：小写并去掉所有非 [a-z0-9] 字符
func NormalizeSkill(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolver 把技能名称解析到题库，并提供题目查询与答题打分
type Resolver struct {
	store   questionbank.Store
	aliases []Alias
}

// NewResolver 创建解析器，aliases 为空时使用默认别名表
func NewResolver(store questionbank.Store, aliases []Alias) *Resolver {
	if len(aliases) == 0 {
		aliases = DefaultAliases
	}
	normalized := make([]Alias, 0, len(aliases))
	for _, a := range aliases {
		from, to := NormalizeSkill(a.From), NormalizeSkill(a.To)
		if from == "" || to == "" {
			continue
		}
		normalized = append(normalized, Alias{From: from, To: to})
	}
	return &Resolver{store: store, aliases: normalized}
}

// AliasTarget 返回别名指向的标识，没有别名时原样返回
func (r *Resolver) AliasTarget(id string) string {
	for _, a := range r.aliases {
		if a.From == id {
			return a.To
		}
	}
	return id
}

// BuildBank 把存储记录规范化为题库
// 没有 id 或题干的题目被丢弃；难度为空时使用 DefaultLevel；分值未声明时取 max(1, 关键词数)。
func BuildBank(rec types.BankRecord) *types.QuestionBank {
	skill := strings.TrimSpace(rec.Skill)
	if skill == "" {
		skill = rec.Key
	}

	bank := &types.QuestionBank{
		Key:              rec.Key,
		Skill:            skill,
		Questions:        make([]types.Question, 0, len(rec.Questions)),
		RawQuestionCount: len(rec.Questions),
	}

	ids := make([]string, 0, 2)
	for _, id := range []string{NormalizeSkill(rec.Key), NormalizeSkill(skill)} {
		if id != "" && (len(ids) == 0 || ids[0] != id) {
			ids = append(ids, id)
		}
	}
	bank.Identifiers = ids

	levels := make(map[string]struct{})
	for _, q := range rec.Questions {
		if lv := strings.TrimSpace(q.Level); lv != "" {
			levels[lv] = struct{}{}
		}
		question, ok := buildQuestion(q)
		if ok {
			bank.Questions = append(bank.Questions, question)
		}
	}
	bank.Levels = make([]string, 0, len(levels))
	for lv := range levels {
		bank.Levels = append(bank.Levels, lv)
	}
	sort.Strings(bank.Levels)
	return bank
}

func buildQuestion(q types.QuestionRecord) (types.Question, bool) {
	id := strings.TrimSpace(q.ID)
	text := strings.TrimSpace(q.Question)
	if id == "" || text == "" {
		return types.Question{}, false
	}

	keywords := make([]string, 0, len(q.Keywords))
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	level := strings.TrimSpace(q.Level)
	if level == "" {
		level = DefaultLevel
	}
	marks := q.Marks
	if marks <= 0 || math.IsNaN(marks) || math.IsInf(marks, 0) {
		marks = float64(max(1, len(keywords)))
	}
	return types.Question{ID: id, Level: level, Question: text, Keywords: keywords, Marks: marks}, true
}

type bankIndex struct {
	bank *types.QuestionBank
}

func (b *bankIndex) matches(id, target string) bool {
	for _, k := range b.bank.Identifiers {
		if k == id || k == target {
			return true
		}
	}
	return false
}

// snapshot 读取一次存储，返回规范化后的题库列表（保持存储顺序，跳过没有题目的记录）
func (r *Resolver) snapshot(ctx context.Context) ([]bankIndex, error) {
	records, err := r.store.LoadBanks(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载题库失败: %w", err)
	}
	out := make([]bankIndex, 0, len(records))
	for _, rec := range records {
		if len(rec.Questions) == 0 {
			continue
		}
		out = append(out, bankIndex{bank: BuildBank(rec)})
	}
	return out, nil
}

func (r *Resolver) resolveIn(banks []bankIndex, skill string) (*types.QuestionBank, bool) {
	id := NormalizeSkill(skill)
	if id == "" {
		return nil, false
	}
	target := r.AliasTarget(id)
	for i := range banks {
		if banks[i].matches(id, target) {
			return banks[i].bank, true
		}
	}
	return nil, false
}

// Resolve 返回第一个标识集合包含该技能标识或其别名目标的题库
// 没有匹配的题库属于正常结果，返回 (nil, false, nil)。
func (r *Resolver) Resolve(ctx context.Context, skill string) (*types.QuestionBank, bool, error) {
	banks, err := r.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	bank, ok := r.resolveIn(banks, skill)
	return bank, ok, nil
}

// MatchSkills 为简历技能逐个查找题库
// 规范化后为空或重复的技能被跳过，没有题库的技能不出现在结果中。全部技能使用同一份题库快照。
func (r *Resolver) MatchSkills(ctx context.Context, skills []string) ([]types.SkillMatch, error) {
	banks, err := r.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(skills))
	matches := make([]types.SkillMatch, 0, len(skills))
	for _, skill := range skills {
		id := NormalizeSkill(skill)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		bank, ok := r.resolveIn(banks, skill)
		if !ok {
			continue
		}
		matches = append(matches, types.SkillMatch{
			ResumeSkill:   skill,
			BankSkill:     bank.Skill,
			QuestionCount: bank.RawQuestionCount,
			Levels:        bank.Levels,
		})
	}
	return matches, nil
}

// Questions 返回技能对应题库的题目列表
func (r *Resolver) Questions(ctx context.Context, skill string) (*types.QuestionList, error) {
	bank, ok, err := r.Resolve(ctx, skill)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBankNotFound, skill)
	}
	return &types.QuestionList{Skill: bank.Skill, Questions: bank.Questions}, nil
}

// FindQuestion 在题库中按 id 查找题目
// 题库中的 id 已去除首尾空白，请求的 id 原样比较，" py-1" 不会命中 "py-1"。
func FindQuestion(bank *types.QuestionBank, questionID string) (types.Question, bool) {
	for _, q := range bank.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return types.Question{}, false
}

// ScoreAnswer 找到题目后按关键词给答案打分
func (r *Resolver) ScoreAnswer(ctx context.Context, skill, questionID, answer string) (*types.AnswerScoreResult, error) {
	bank, ok, err := r.Resolve(ctx, skill)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBankNotFound, skill)
	}
	q, ok := FindQuestion(bank, questionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, questionID)
	}

	return &types.AnswerScoreResult{
		Skill:            bank.Skill,
		QuestionID:       questionID,
		Level:            q.Level,
		Question:         q.Question,
		ExpectedKeywords: q.Keywords,
		ExpectedAnswer:   strings.Join(q.Keywords, ", "),
		ScoredAnswer:     ScoreAnswer(answer, q.Keywords, q.Marks),
	}, nil
}
