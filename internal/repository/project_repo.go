package repository

import (
	"context"
	"errors"

	"crowdfund/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProjectRepo struct {
	db *gorm.DB
}

func (r *ProjectRepo) Get(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepo) GetForUpdate(ctx context.Context, id string) (*model.Project, error) {
	var project model.Project
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (r *ProjectRepo) Upsert(ctx context.Context, project *model.Project) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(project).Error
}

func (r *ProjectRepo) List(ctx context.Context, filter ProjectFilter) ([]*model.Project, error) {
	var projects []*model.Project
	query := r.db.WithContext(ctx).Model(&model.Project{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OwnerID != "" {
		query = query.Where("owner_id = ?", filter.OwnerID)
	}
	err := query.Order("created_at DESC").Find(&projects).Error
	return projects, err
}

// AddFunding 原子累加募集金额，避免读改写覆盖并发投资
func (r *ProjectRepo) AddFunding(ctx context.Context, id string, amount int64) error {
	if amount < 0 {
		return ErrNegativeFunding
	}

	result := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Where("id = ?", id).
		UpdateColumn("current_amount", gorm.Expr("current_amount + ?", amount))

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}

	return nil
}
