package types

// QuestionRecord 题库存储中的原始题目记录，字段可能缺失或不规范
type QuestionRecord struct {
	ID       string   `json:"id" yaml:"id"`
	Level    string   `json:"level,omitempty" yaml:"level,omitempty"`
	Question string   `json:"question" yaml:"question"`
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Marks    float64  `json:"marks,omitempty" yaml:"marks,omitempty"` // 0 表示未声明
}

// BankRecord 题库存储中的一条记录
type BankRecord struct {
	Key       string           `json:"key" yaml:"key"`     // 存储键，例如文件名(不含扩展名)
	Skill     string           `json:"skill" yaml:"skill"` // 题库声明的技能名称
	Questions []QuestionRecord `json:"questions" yaml:"questions"`
}

// Question 规范化后的题目
type Question struct {
	ID       string   `json:"id"`
	Level    string   `json:"level"`
	Question string   `json:"question"`
	Keywords []string `json:"-"`
	Marks    float64  `json:"marks"`
}

// QuestionBank 规范化后的题库
type QuestionBank struct {
	Key       string     `json:"key"`
	Skill     string     `json:"skill"` // 展示名称
	Questions []Question `json:"questions"`
	// Raw 原始记录数量，匹配接口的 question_count 以此为准
	RawQuestionCount int `json:"-"`
	// Identifiers 可匹配该题库的技能标识集合
	Identifiers []string `json:"-"`
	// Levels 原始记录中声明过的难度，去重排序
	Levels []string `json:"-"`
}

// SkillMatch 简历技能与题库的匹配结果
type SkillMatch struct {
	ResumeSkill   string   `json:"resume_skill"`
	BankSkill     string   `json:"bank_skill"`
	QuestionCount int      `json:"question_count"`
	Levels        []string `json:"levels"`
}

// QuestionList 某技能的题目列表
type QuestionList struct {
	Skill     string     `json:"skill"`
	Questions []Question `json:"questions"`
}

// Verdict 答题评价
type Verdict string

const (
	VerdictStrong           Verdict = "Strong"
	VerdictModerate         Verdict = "Moderate"
	VerdictNeedsImprovement Verdict = "Needs Improvement"
)

// ScoredAnswer 关键词打分结果
type ScoredAnswer struct {
	FoundKeywords   []string `json:"found_keywords"`
	MissingKeywords []string `json:"missing_keywords"`
	Ratio           float64  `json:"ratio"`
	MarksAwarded    float64  `json:"marks_awarded"`
	TotalMarks      float64  `json:"total_marks"`
	Percentage      float64  `json:"percentage"`
	Verdict         Verdict  `json:"verdict"`
}

// AnswerScoreResult 答题打分接口的完整返回
type AnswerScoreResult struct {
	Skill            string   `json:"skill"`
	QuestionID       string   `json:"question_id"`
	Level            string   `json:"level"`
	Question         string   `json:"question"`
	ExpectedKeywords []string `json:"expected_keywords"`
	ExpectedAnswer   string   `json:"expected_answer"`
	ScoredAnswer
}
