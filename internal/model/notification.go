package model

import (
	"time"
)

type NotificationType string

const (
	NotificationDepositCompleted    NotificationType = "deposit_completed"
	NotificationDepositFailed       NotificationType = "deposit_failed"
	NotificationWithdrawalRequested NotificationType = "withdrawal_requested"
	NotificationWithdrawalCompleted NotificationType = "withdrawal_completed"
	NotificationWithdrawalFailed    NotificationType = "withdrawal_failed"
	NotificationInvestmentConfirmed NotificationType = "investment_confirmed"
	NotificationNewInvestment       NotificationType = "new_investment"
	NotificationNewUser             NotificationType = "new_user"
	NotificationAccountApproved     NotificationType = "account_approved"
	NotificationAccountRejected     NotificationType = "account_rejected"
	NotificationNewProject          NotificationType = "new_project"
	NotificationProjectApproved     NotificationType = "project_approved"
	NotificationProjectRejected     NotificationType = "project_rejected"
)

// Notification 只追加，唯一可修改的字段是 Read
type Notification struct {
	ID         string           `gorm:"type:varchar(64);primaryKey" json:"id"`
	TargetUser string           `gorm:"type:varchar(64);index;not null" json:"target_user"`
	Type       NotificationType `gorm:"type:varchar(32);not null" json:"type"`
	Title      string           `gorm:"type:varchar(128);not null" json:"title"`
	Message    string           `gorm:"type:varchar(512);not null" json:"message"`
	Read       bool             `gorm:"not null;default:false;index" json:"read"`
	CreatedAt  time.Time        `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string {
	return "notification"
}
