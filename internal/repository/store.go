package repository

import (
	"context"
	"errors"

	"crowdfund/internal/model"
)

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrProjectNotFound     = errors.New("项目不存在")
	ErrWalletNotFound      = errors.New("钱包不存在")
	ErrTransactionNotFound = errors.New("流水不存在")
	ErrStatusTransition    = errors.New("流水状态不合法")
	ErrNegativeFunding     = errors.New("募集金额变动不能为负")
	ErrEmailExists         = errors.New("邮箱已注册")
)

// Store 账本存储。各集合只提供按实体的读取与写入，不做外键校验，
// 引用完整性由上层资金引擎负责
type Store interface {
	Users() UserRepository
	Projects() ProjectRepository
	Investments() InvestmentRepository
	Transactions() TransactionRepository
	Wallets() WalletRepository
	Notifications() NotificationRepository
	Outbox() OutboxRepository

	// Transaction 在同一个事务内执行 fn，fn 返回错误时全部写入都不生效
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type UserRepository interface {
	Get(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// Create 仅插入，邮箱冲突返回 ErrEmailExists
	Create(ctx context.Context, user *model.User) error
	Upsert(ctx context.Context, user *model.User) error
	ListByStatus(ctx context.Context, status model.ReviewStatus) ([]*model.User, error)
}

// ProjectFilter 空字段表示不过滤
type ProjectFilter struct {
	Status  model.ReviewStatus
	OwnerID string
}

type ProjectRepository interface {
	Get(ctx context.Context, id string) (*model.Project, error)
	// GetForUpdate 在事务中加行锁读取，与 AddFunding 互斥
	GetForUpdate(ctx context.Context, id string) (*model.Project, error)
	Upsert(ctx context.Context, project *model.Project) error
	List(ctx context.Context, filter ProjectFilter) ([]*model.Project, error)
	AddFunding(ctx context.Context, id string, amount int64) error
}

type InvestmentRepository interface {
	Create(ctx context.Context, investment *model.Investment) error
	ListByInvestor(ctx context.Context, investorID string) ([]*model.Investment, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.Investment, error)
	SumByProject(ctx context.Context, projectID string) (int64, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, trans *model.Transaction) error
	Get(ctx context.Context, id string) (*model.Transaction, error)
	ListByUserID(ctx context.Context, userID string, page, pageSize int) ([]*model.Transaction, int64, error)
	UpdateStatus(ctx context.Context, id string, fromStatus, toStatus model.TransactionStatus) error
}

type WalletRepository interface {
	Get(ctx context.Context, userID string) (*model.Wallet, error)
	// GetForUpdate 在事务中加行锁读取
	GetForUpdate(ctx context.Context, userID string) (*model.Wallet, error)
	Upsert(ctx context.Context, wallet *model.Wallet) error
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	// ListForTargets 按创建时间倒序返回，limit <= 0 表示不限制
	ListForTargets(ctx context.Context, targets []string, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, ids []string, targets []string) (int64, error)
	CountUnread(ctx context.Context, targets []string) (int64, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, msg *model.OutboxMessage) error
	GetPendingMessages(ctx context.Context, limit int) ([]*model.OutboxMessage, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	IncrementRetryCount(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64) error
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
