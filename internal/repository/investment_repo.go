package repository

import (
	"context"

	"crowdfund/internal/model"

	"gorm.io/gorm"
)

type InvestmentRepo struct {
	db *gorm.DB
}

func (r *InvestmentRepo) Create(ctx context.Context, investment *model.Investment) error {
	return r.db.WithContext(ctx).Create(investment).Error
}

func (r *InvestmentRepo) ListByInvestor(ctx context.Context, investorID string) ([]*model.Investment, error) {
	var investments []*model.Investment
	err := r.db.WithContext(ctx).
		Where("investor_id = ?", investorID).
		Order("investment_date ASC").
		Find(&investments).Error
	return investments, err
}

func (r *InvestmentRepo) ListByProject(ctx context.Context, projectID string) ([]*model.Investment, error) {
	var investments []*model.Investment
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("investment_date ASC").
		Find(&investments).Error
	return investments, err
}

func (r *InvestmentRepo) SumByProject(ctx context.Context, projectID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.Investment{}).
		Where("project_id = ? AND status = ?", projectID, model.InvestmentStatusActive).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
