package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// 发件箱消息状态
const (
	OutboxPending = "PENDING"
	OutboxSent    = "SENT"
	OutboxFailed  = "FAILED"
)

// OutboxMessage 直接发布失败的事件，由中继服务重试投递
type OutboxMessage struct {
	ID               uint           `gorm:"primaryKey"`
	AggregateID      string         `gorm:"type:varchar(64);index"` // 分析ID
	EventType        string         `gorm:"type:varchar(64)"`
	TargetExchange   string         `gorm:"type:varchar(255);not null"`
	TargetRoutingKey string         `gorm:"type:varchar(255);not null"`
	Payload          datatypes.JSON `gorm:"type:json;not null"`
	Status           string         `gorm:"type:varchar(16);not null;default:PENDING;index:idx_outbox_status_created,priority:1"`
	RetryCount       int            `gorm:"not null;default:0"`
	ErrorMessage     string         `gorm:"type:text"`
	CreatedAt        time.Time      `gorm:"index:idx_outbox_status_created,priority:2"`
	ProcessedAt      *time.Time
}

// TableName 表名
func (OutboxMessage) TableName() string {
	return "outbox_messages"
}

// NewOutboxMessage 把事件序列化为待投递的发件箱消息
func NewOutboxMessage(aggregateID, eventType, exchange, routingKey string, event any) (*OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &OutboxMessage{
		AggregateID:      aggregateID,
		EventType:        eventType,
		TargetExchange:   exchange,
		TargetRoutingKey: routingKey,
		Payload:          datatypes.JSON(payload),
		Status:           OutboxPending,
	}, nil
}

// MarkResult 按一次投递的结果更新状态，重试 maxRetries 次仍失败后标记为 FAILED
func (m *OutboxMessage) MarkResult(publishErr error, maxRetries int, now time.Time) {
	if publishErr == nil {
		m.Status = OutboxSent
		m.ErrorMessage = ""
		m.ProcessedAt = &now
		return
	}
	m.RetryCount++
	m.ErrorMessage = publishErr.Error()
	if m.RetryCount >= maxRetries {
		m.Status = OutboxFailed
		m.ProcessedAt = &now
	}
}
