package models

import (
	"time"

	"gorm.io/datatypes"

	"resume-insight/internal/types"
)

// QuestionBank 题库主表
type QuestionBank struct {
	BankKey   string         `gorm:"type:varchar(128);primaryKey"`
	Skill     string         `gorm:"type:varchar(255);not null"`
	Questions []BankQuestion `gorm:"foreignKey:BankKey;references:BankKey;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	CreatedAt time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (QuestionBank) TableName() string {
	return "question_banks"
}

// BankQuestion 题库中的单个题目，Position 保留导入时的顺序
type BankQuestion struct {
	ID           uint64         `gorm:"primaryKey;autoIncrement"`
	BankKey      string         `gorm:"type:varchar(128);not null;index:idx_bank_questions_bank_position,priority:1"`
	Position     int            `gorm:"not null;index:idx_bank_questions_bank_position,priority:2"`
	QuestionID   string         `gorm:"type:varchar(128)"`
	Level        string         `gorm:"type:varchar(64)"`
	QuestionText string         `gorm:"type:text"`
	KeywordsJSON datatypes.JSON `gorm:"type:json"` // string[]
	Marks        float64        `gorm:"type:double;default:0"`
	CreatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (BankQuestion) TableName() string {
	return "bank_questions"
}

// ToBankRecord 将数据库模型转换为题库记录，题目按 Position 排序后传入
func (b *QuestionBank) ToBankRecord() types.BankRecord {
	rec := types.BankRecord{
		Key:       b.BankKey,
		Skill:     b.Skill,
		Questions: make([]types.QuestionRecord, 0, len(b.Questions)),
	}
	for _, q := range b.Questions {
		keywords := fromJSON[string](q.KeywordsJSON)
		rec.Questions = append(rec.Questions, types.QuestionRecord{
			ID:       q.QuestionID,
			Level:    q.Level,
			Question: q.QuestionText,
			Keywords: keywords,
			Marks:    q.Marks,
		})
	}
	return rec
}

// NewQuestionBankModel 由题库记录构造数据库模型
func NewQuestionBankModel(rec types.BankRecord) (*QuestionBank, error) {
	m := &QuestionBank{
		BankKey:   rec.Key,
		Skill:     rec.Skill,
		Questions: make([]BankQuestion, 0, len(rec.Questions)),
	}
	for i, q := range rec.Questions {
		kwJSON, err := toJSON(q.Keywords)
		if err != nil {
			return nil, err
		}
		m.Questions = append(m.Questions, BankQuestion{
			BankKey:      rec.Key,
			Position:     i,
			QuestionID:   q.ID,
			Level:        q.Level,
			QuestionText: q.Question,
			KeywordsJSON: kwJSON,
			Marks:        q.Marks,
		})
	}
	return m, nil
}
