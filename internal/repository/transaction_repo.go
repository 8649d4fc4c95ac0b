package repository

import (
	"context"
	"errors"

	"crowdfund/internal/model"

	"gorm.io/gorm"
)

type TransactionRepo struct {
	db *gorm.DB
}

func (r *TransactionRepo) Create(ctx context.Context, trans *model.Transaction) error {
	return r.db.WithContext(ctx).Create(trans).Error
}

func (r *TransactionRepo) Get(ctx context.Context, id string) (*model.Transaction, error) {
	var trans model.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&trans).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &trans, nil
}

func (r *TransactionRepo) ListByUserID(ctx context.Context, userID string, page, pageSize int) ([]*model.Transaction, int64, error) {
	var transactions []*model.Transaction
	var total int64

	page, pageSize = normalizePage(page, pageSize)
	query := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("user_id = ?", userID)

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&transactions).Error

	return transactions, total, err
}

// UpdateStatus 以 fromStatus 作为条件更新，保证状态只按合法路径流转
func (r *TransactionRepo) UpdateStatus(ctx context.Context, id string, fromStatus, toStatus model.TransactionStatus) error {
	if !model.CanTransitionTo(fromStatus, toStatus) {
		return ErrStatusTransition
	}

	result := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Update("status", toStatus)

	if result.Error != nil {
		return result.Error
	}

	// 未更新时区分流水不存在与状态已变化
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&model.Transaction{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrTransactionNotFound
		}
		return ErrStatusTransition
	}

	return nil
}
