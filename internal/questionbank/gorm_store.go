package questionbank

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resume-insight/internal/storage/models"
	"resume-insight/internal/types"
)

// GormStore 基于 MySQL 的题库存储
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建数据库题库，表结构由 storage.MySQL 自动迁移
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// LoadBanks 按存储键顺序读取全部题库，题目按导入顺序排列
func (s *GormStore) LoadBanks(ctx context.Context) ([]types.BankRecord, error) {
	var rows []models.QuestionBank
	err := s.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("bank_key ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询题库失败: %w", err)
	}

	banks := make([]types.BankRecord, 0, len(rows))
	for i := range rows {
		if len(rows[i].Questions) == 0 {
			continue
		}
		banks = append(banks, rows[i].ToBankRecord())
	}
	return banks, nil
}

// UpsertBank 在一个事务中覆盖写入题库及其全部题目
func (s *GormStore) UpsertBank(ctx context.Context, bank types.BankRecord) error {
	if err := ValidateBank(bank); err != nil {
		return err
	}
	m, err := models.NewQuestionBankModel(bank)
	if err != nil {
		return fmt.Errorf("构造题库模型失败: %w", err)
	}
	questions := m.Questions
	m.Questions = nil

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "bank_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"skill", "updated_at"}),
		}).Create(m).Error
		if err != nil {
			return fmt.Errorf("写入题库失败: %w", err)
		}
		if err := tx.Where("bank_key = ?", bank.Key).Delete(&models.BankQuestion{}).Error; err != nil {
			return fmt.Errorf("清理旧题目失败: %w", err)
		}
		if err := tx.CreateInBatches(questions, 100).Error; err != nil {
			return fmt.Errorf("写入题目失败: %w", err)
		}
		return nil
	})
}
