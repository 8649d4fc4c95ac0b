package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crowdfund/internal/model"
	"crowdfund/internal/repository"
	"crowdfund/pkg/idgen"
)

// NotificationService 站内通知，只追加，最新的排在最前
type NotificationService struct {
	store repository.Store
	topic string
}

func NewNotificationService(store repository.Store, topic string) *NotificationService {
	return &NotificationService{store: store, topic: topic}
}

// Emit 在调用方的事务内写入通知，并写一条 outbox 消息用于推送
func (s *NotificationService) Emit(ctx context.Context, tx repository.Store, target string, typ model.NotificationType, title, message string) (*model.Notification, error) {
	if tx == nil {
		tx = s.store
	}
	notification := &model.Notification{
		ID:         idgen.GenerateNotificationID(),
		TargetUser: target,
		Type:       typ,
		Title:      title,
		Message:    message,
		CreatedAt:  time.Now(),
	}
	if err := tx.Notifications().Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("写入通知失败: %w", err)
	}
	if s.topic != "" {
		if err := writeOutbox(ctx, tx, s.topic, notification.ID, model.EventNotificationCreated, notification); err != nil {
			return nil, err
		}
	}
	return notification, nil
}

func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	targets, err := s.targets(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.Notifications().ListForTargets(ctx, targets, limit)
}

// CountUnread 未读数（角标）
func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	targets, err := s.targets(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.store.Notifications().CountUnread(ctx, targets)
}

// MarkRead 重复标记不影响结果，返回本次新标记的数量
func (s *NotificationService) MarkRead(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	targets, err := s.targets(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.store.Notifications().MarkRead(ctx, ids, targets)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	list, err := s.List(ctx, userID, 0)
	if err != nil {
		return 0, err
	}
	var ids []string
	for _, n := range list {
		if !n.Read {
			ids = append(ids, n.ID)
		}
	}
	return s.MarkRead(ctx, userID, ids)
}

// targets 管理员额外可见发给 "admin" 的广播通知
func (s *NotificationService) targets(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, invalid("user_id", "不能为空")
	}
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return []string{userID}, nil
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user.Role == model.RoleAdmin {
		return []string{userID, model.AdminTarget}, nil
	}
	return []string{userID}, nil
}
