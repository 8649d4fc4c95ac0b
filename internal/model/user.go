package model

import (
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleInvestor Role = "investor"
	RoleOwner    Role = "owner"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleInvestor, RoleOwner:
		return true
	}
	return false
}

// ReviewStatus 用户与项目共用的审核状态
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

// AdminTarget 通知的管理员广播目标
const AdminTarget = "admin"

// User 由身份子系统维护，账本只读取 id/role/status
type User struct {
	ID        string       `gorm:"type:varchar(64);primaryKey" json:"id"`
	Email     string       `gorm:"type:varchar(191);uniqueIndex;not null" json:"email"`
	Name      string       `gorm:"type:varchar(128);not null" json:"name"`
	Role      Role         `gorm:"type:varchar(16);index;not null" json:"role"`
	Status    ReviewStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}
