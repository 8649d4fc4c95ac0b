package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const InvestmentStatusActive = "active"

// Investment 创建后不可修改
type Investment struct {
	ID             string          `gorm:"type:varchar(64);primaryKey" json:"id"`
	InvestorID     string          `gorm:"type:varchar(64);index;not null" json:"investor_id"`
	ProjectID      string          `gorm:"type:varchar(64);index;not null" json:"project_id"`
	ProjectName    string          `gorm:"type:varchar(128)" json:"project_name"`
	Amount         int64           `gorm:"not null" json:"amount"`
	ReturnRate     decimal.Decimal `gorm:"type:decimal(6,4);not null" json:"return_rate"`
	PeriodMonths   int             `gorm:"not null" json:"period_months"`
	ExpectedReturn int64           `gorm:"not null" json:"expected_return"`
	Status         string          `gorm:"type:varchar(16);not null" json:"status"`
	InvestmentDate time.Time       `gorm:"index;not null" json:"investment_date"`
}

func (Investment) TableName() string {
	return "investment"
}
