package model

import (
	"time"
)

// Wallet 用户钱包
// Balance 用于投资，Earnings 为项目方收益（可提现），两者独立且均不小于0
type Wallet struct {
	UserID    string    `gorm:"type:varchar(64);primaryKey" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	Earnings  int64     `gorm:"not null;default:0" json:"earnings"`
	Version   int       `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Wallet) TableName() string {
	return "wallet"
}
