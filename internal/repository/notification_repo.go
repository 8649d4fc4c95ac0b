package repository

import (
	"context"

	"crowdfund/internal/model"

	"gorm.io/gorm"
)

type NotificationRepo struct {
	db *gorm.DB
}

func (r *NotificationRepo) Create(ctx context.Context, notification *model.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *NotificationRepo) ListForTargets(ctx context.Context, targets []string, limit int) ([]*model.Notification, error) {
	var notifications []*model.Notification
	query := r.db.WithContext(ctx).
		Where("target_user IN ?", targets).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&notifications).Error
	return notifications, err
}

func (r *NotificationRepo) MarkRead(ctx context.Context, ids []string, targets []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id IN ? AND target_user IN ? AND `read` = ?", ids, targets, false).
		Update("read", true)
	return result.RowsAffected, result.Error
}

func (r *NotificationRepo) CountUnread(ctx context.Context, targets []string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("target_user IN ? AND `read` = ?", targets, false).
		Count(&count).Error
	return count, err
}
