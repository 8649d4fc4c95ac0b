package job

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crowdfund/internal/model"
	"crowdfund/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (f *fakeSender) SendMessage(topic, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, key)
	return nil
}

func (f *fakeSender) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func seedOutbox(t *testing.T, store repository.Store, keys ...string) {
	t.Helper()
	for _, key := range keys {
		require.NoError(t, store.Outbox().Create(context.Background(), &model.OutboxMessage{
			MessageKey: key,
			Topic:      "crowdfund.ledger.events",
			EventType:  model.EventDeposited,
			Payload:    "{}",
		}))
	}
}

func TestOutboxSenderMarksSent(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedOutbox(t, store, "TXN1", "TXN2")

	sender := &fakeSender{}
	job := NewOutboxSender(store, sender, time.Millisecond, 3)
	job.processPendingMessages(ctx)

	assert.Equal(t, []string{"TXN1", "TXN2"}, sender.keys())
	pending, err := store.Outbox().GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxSenderRetriesThenFails(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	seedOutbox(t, store, "TXN1")

	sender := &fakeSender{err: errors.New("broker down")}
	job := NewOutboxSender(store, sender, time.Millisecond, 3)

	job.processPendingMessages(ctx)
	job.processPendingMessages(ctx)
	pending, err := store.Outbox().GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].RetryCount)

	job.processPendingMessages(ctx)
	pending, err = store.Outbox().GetPendingMessages(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestOutboxSenderStartStop(t *testing.T) {
	store := repository.NewMemoryStore()
	seedOutbox(t, store, "TXN1")
	sender := &fakeSender{}
	job := NewOutboxSender(store, sender, 5*time.Millisecond, 3)

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(sender.keys()) == 1 }, time.Second, 5*time.Millisecond)
	job.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sender did not stop")
	}
}
