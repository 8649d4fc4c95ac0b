package service

import (
	"context"
	"testing"

	"crowdfund/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationMarkReadIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", model.RoleInvestor)

	var ids []string
	for i := 0; i < 3; i++ {
		n, err := env.notifier.Emit(ctx, nil, "u1", model.NotificationDepositCompleted, "t", "m")
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	changed, err := env.notifier.MarkRead(ctx, "u1", ids[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)
	once, err := env.notifier.CountUnread(ctx, "u1")
	require.NoError(t, err)

	changed, err = env.notifier.MarkRead(ctx, "u1", ids[:1])
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)
	twice, err := env.notifier.CountUnread(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), once)
	assert.Equal(t, once, twice)

	list, err := env.notifier.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, ids[2], list[0].ID)
}

func TestNotificationCannotMarkOthers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "u1", model.RoleInvestor)
	env.addUser(t, "u2", model.RoleInvestor)

	n, err := env.notifier.Emit(ctx, nil, "u2", model.NotificationDepositCompleted, "t", "m")
	require.NoError(t, err)

	changed, err := env.notifier.MarkRead(ctx, "u1", []string{n.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), changed)

	count, err := env.notifier.CountUnread(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationAdminSeesBroadcast(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "root", model.RoleAdmin)
	env.addUser(t, "u1", model.RoleInvestor)

	_, err := env.notifier.Emit(ctx, nil, model.AdminTarget, model.NotificationNewUser, "t", "m")
	require.NoError(t, err)
	_, err = env.notifier.Emit(ctx, nil, "root", model.NotificationNewProject, "t", "m")
	require.NoError(t, err)

	count, err := env.notifier.CountUnread(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = env.notifier.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	changed, err := env.notifier.MarkAllRead(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	count, err = env.notifier.CountUnread(ctx, "root")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestNotificationRequiresUserID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.notifier.CountUnread(context.Background(), "")
	assert.IsType(t, &ValidationError{}, err)
}
