package storage

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resume-insight/internal/storage/models"
)

// OutboxHandler 投递一条消息并通过 MarkResult 更新其状态
type OutboxHandler func(ctx context.Context, msg *models.OutboxMessage)

// EnqueueOutbox 写入一条待投递消息
func (m *MySQL) EnqueueOutbox(ctx context.Context, msg *models.OutboxMessage) error {
	if err := m.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("写入发件箱失败: %w", err)
	}
	return nil
}

// ProcessOutbox 在一个事务中锁定一批待投递消息，逐条交给 handle 后保存状态
// FOR UPDATE SKIP LOCKED 让多个实例可以同时运行中继而不重复投递。
func (m *MySQL) ProcessOutbox(ctx context.Context, batchSize int, handle OutboxHandler) (int, error) {
	var messages []models.OutboxMessage

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", models.OutboxPending).
			Order("created_at asc").
			Limit(batchSize).
			Find(&messages).Error
		if err != nil {
			return fmt.Errorf("查询待投递消息失败: %w", err)
		}
		if len(messages) == 0 {
			return nil
		}

		// 空轮询不创建 span
		ctx, span := mysqlTracer.Start(ctx, "MySQL.ProcessOutbox")
		defer span.End()
		span.SetAttributes(attribute.Int("messaging.batch.message_count", len(messages)))

		for i := range messages {
			handle(ctx, &messages[i])
			// 保存失败时整批回滚，下一轮重新拾取
			if err := tx.Save(&messages[i]).Error; err != nil {
				return fmt.Errorf("更新发件箱消息 %d 失败: %w", messages[i].ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(messages), nil
}
