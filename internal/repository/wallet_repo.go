package repository

import (
	"context"
	"errors"

	"crowdfund/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WalletRepo struct {
	db *gorm.DB
}

func (r *WalletRepo) Get(ctx context.Context, userID string) (*model.Wallet, error) {
	var wallet model.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *WalletRepo) GetForUpdate(ctx context.Context, userID string) (*model.Wallet, error) {
	var wallet model.Wallet
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// Upsert 写入余额与收益，版本号自增
func (r *WalletRepo) Upsert(ctx context.Context, wallet *model.Wallet) error {
	wallet.Version++
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance", "earnings", "version", "updated_at"}),
		}).
		Create(wallet).Error
}
