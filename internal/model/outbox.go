package model

import (
	"time"
)

const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// OutboxMessage 与资金变动在同一事务内写入，由 OutboxSender 异步投递到 Kafka
type OutboxMessage struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageKey string    `gorm:"type:varchar(64);not null" json:"message_key"`
	Topic      string    `gorm:"type:varchar(64);not null" json:"topic"`
	EventType  string    `gorm:"type:varchar(32);not null" json:"event_type"`
	Payload    string    `gorm:"type:text;not null" json:"payload"`
	Status     string    `gorm:"type:varchar(20);index;not null;default:PENDING" json:"status"`
	RetryCount int       `gorm:"not null;default:0" json:"retry_count"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (OutboxMessage) TableName() string {
	return "outbox_message"
}

const (
	EventDeposited           = "wallet.deposited"
	EventDepositFailed       = "wallet.deposit_failed"
	EventWithdrawalRequested = "wallet.withdrawal_requested"
	EventWithdrawalSettled   = "wallet.withdrawal_settled"
	EventInvested            = "project.invested"
	EventNotificationCreated = "notification.created"
)

// LedgerEvent Kafka 消息体
type LedgerEvent struct {
	Event        string            `json:"event"`
	UserID       string            `json:"user_id"`
	ProjectID    string            `json:"project_id,omitempty"`
	Transactions []string          `json:"transactions,omitempty"`
	Amount       int64             `json:"amount"`
	Fees         int64             `json:"fees,omitempty"`
	NetAmount    int64             `json:"net_amount,omitempty"`
	Status       TransactionStatus `json:"status,omitempty"`
	OccurredAt   time.Time         `json:"occurred_at"`
}
