package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project 众筹项目
//
// CurrentAmount 只在投资成功时增加，等于该项目所有 active 投资金额之和
type Project struct {
	ID            string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	OwnerID       string          `gorm:"type:varchar(64);index;not null" json:"owner_id"`
	Name          string          `gorm:"type:varchar(128);not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      string          `gorm:"type:varchar(32)" json:"category"`
	Location      string          `gorm:"type:varchar(64)" json:"location"`
	TargetAmount  int64           `gorm:"not null" json:"target_amount"`
	CurrentAmount int64           `gorm:"not null;default:0" json:"current_amount"`
	ReturnRate    decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"return_rate"`
	PeriodMonths  int             `gorm:"not null" json:"period_months"`
	Status        ReviewStatus    `gorm:"type:varchar(16);index;not null" json:"status"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Project) TableName() string {
	return "project"
}

// FundingProgress 返回募集进度百分比（0-100 以上均可能）
func (p *Project) FundingProgress() float64 {
	if p.TargetAmount <= 0 {
		return 0
	}
	progress, _ := decimal.NewFromInt(p.CurrentAmount).
		Div(decimal.NewFromInt(p.TargetAmount)).
		Mul(decimal.NewFromInt(100)).
		Round(1).
		Float64()
	return progress
}
