package job

import (
	"context"
	"log"
	"time"

	"crowdfund/internal/model"
	"crowdfund/internal/repository"
)

// MessageSender 消息投递，生产环境为 Kafka 生产者
type MessageSender interface {
	SendMessage(topic, key, value string) error
}

// OutboxSender 定时扫描 outbox 表，把资金事件与通知投递出去
type OutboxSender struct {
	store         repository.Store
	sender        MessageSender
	stopCh        chan struct{}
	interval      time.Duration
	batchSize     int
	maxRetryCount int
}

func NewOutboxSender(store repository.Store, sender MessageSender, interval time.Duration, maxRetryCount int) *OutboxSender {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &OutboxSender{
		store:         store,
		sender:        sender,
		stopCh:        make(chan struct{}),
		interval:      interval,
		batchSize:     100,
		maxRetryCount: maxRetryCount,
	}
}

func (s *OutboxSender) Start(ctx context.Context) {
	log.Println("[OutboxSender] 消息发送任务启动")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OutboxSender] 收到停止信号，任务退出")
			return
		case <-s.stopCh:
			log.Println("[OutboxSender] 任务停止")
			return
		case <-ticker.C:
			s.processPendingMessages(ctx)
		}
	}
}

func (s *OutboxSender) Stop() {
	close(s.stopCh)
}

func (s *OutboxSender) processPendingMessages(ctx context.Context) {
	messages, err := s.store.Outbox().GetPendingMessages(ctx, s.batchSize)
	if err != nil {
		log.Printf("[OutboxSender] 查询消息失败: %v", err)
		return
	}

	for _, msg := range messages {
		s.sendMessage(ctx, msg)
	}
}

func (s *OutboxSender) sendMessage(ctx context.Context, msg *model.OutboxMessage) {
	outbox := s.store.Outbox()
	err := s.sender.SendMessage(msg.Topic, msg.MessageKey, msg.Payload)

	if err == nil {
		if updateErr := outbox.UpdateStatus(ctx, msg.ID, model.OutboxStatusSent); updateErr != nil {
			log.Printf("[OutboxSender] 更新消息状态失败: id=%d, err=%v", msg.ID, updateErr)
		} else {
			log.Printf("[OutboxSender] 消息发送成功: id=%d, event=%s, key=%s", msg.ID, msg.EventType, msg.MessageKey)
		}
		return
	}

	log.Printf("[OutboxSender] 消息发送失败: id=%d, err=%v", msg.ID, err)

	// MarkAsFailed 本身会累加一次重试次数
	if msg.RetryCount+1 >= s.maxRetryCount {
		if err := outbox.MarkAsFailed(ctx, msg.ID); err != nil {
			log.Printf("[OutboxSender] 标记消息失败状态失败: id=%d, err=%v", msg.ID, err)
		} else {
			log.Printf("[OutboxSender] 消息超过最大重试次数，标记为失败: id=%d", msg.ID)
		}
		return
	}

	if err := outbox.IncrementRetryCount(ctx, msg.ID); err != nil {
		log.Printf("[OutboxSender] 增加重试次数失败: id=%d, err=%v", msg.ID, err)
	}
}
