package repository

import (
	"context"

	"gorm.io/gorm"
)

// GormStore 基于 gorm 的账本存储（生产环境使用 MySQL）
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Users() UserRepository {
	return &UserRepo{db: s.db}
}

func (s *GormStore) Projects() ProjectRepository {
	return &ProjectRepo{db: s.db}
}

func (s *GormStore) Investments() InvestmentRepository {
	return &InvestmentRepo{db: s.db}
}

func (s *GormStore) Transactions() TransactionRepository {
	return &TransactionRepo{db: s.db}
}

func (s *GormStore) Wallets() WalletRepository {
	return &WalletRepo{db: s.db}
}

func (s *GormStore) Notifications() NotificationRepository {
	return &NotificationRepo{db: s.db}
}

func (s *GormStore) Outbox() OutboxRepository {
	return &OutboxRepo{db: s.db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
