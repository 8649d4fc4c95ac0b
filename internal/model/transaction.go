package model

import (
	"time"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeInvestment TransactionType = "investment"
	TransactionTypeProfit     TransactionType = "profit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
)

// ValidStatusTransitions 流水只允许从处理中流转到终态
var ValidStatusTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:    {TransactionStatusProcessing, TransactionStatusFailed},
	TransactionStatusProcessing: {TransactionStatusCompleted, TransactionStatusFailed},
}

func CanTransitionTo(currentStatus, targetStatus TransactionStatus) bool {
	allowedStatuses, exists := ValidStatusTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowedStatuses {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// Transaction 资金流水
//
// 【重要】流水表设计原则：
// 1. 只追加，不删除，保证审计可追溯
// 2. 唯一允许的修改是提现流水的状态流转（由后台结算完成）
type Transaction struct {
	ID          string            `gorm:"type:varchar(64);primaryKey" json:"id"`
	UserID      string            `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Type        TransactionType   `gorm:"type:varchar(16);index;not null" json:"type"`
	Amount      int64             `gorm:"not null" json:"amount"`
	Fees        int64             `gorm:"not null;default:0" json:"fees,omitempty"`
	NetAmount   int64             `gorm:"not null;default:0" json:"net_amount,omitempty"`
	Method      PaymentMethod     `gorm:"type:varchar(32)" json:"method,omitempty"`
	Status      TransactionStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	Reference   string            `gorm:"type:varchar(64);index" json:"reference,omitempty"`
	Description string            `gorm:"type:varchar(256)" json:"description"`
	CreatedAt   time.Time         `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (Transaction) TableName() string {
	return "ledger_transaction"
}
