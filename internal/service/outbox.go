package service

import (
	"context"
	"encoding/json"
	"fmt"

	"crowdfund/internal/model"
	"crowdfund/internal/repository"
)

// writeOutbox 与业务写入同一事务，投递由 job.OutboxSender 完成
func writeOutbox(ctx context.Context, tx repository.Store, topic, key, eventType string, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}
	msg := &model.OutboxMessage{
		MessageKey: key,
		Topic:      topic,
		EventType:  eventType,
		Payload:    string(payloadBytes),
		Status:     model.OutboxStatusPending,
	}
	if err := tx.Outbox().Create(ctx, msg); err != nil {
		return fmt.Errorf("写入消息失败: %w", err)
	}
	return nil
}
