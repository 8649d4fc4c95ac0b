package service

import (
	"context"
	"errors"
	"testing"

	"crowdfund/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithdrawal(t *testing.T, env *testEnv, userID string, amount int64) *model.Transaction {
	t.Helper()
	resp, err := env.funding.Withdraw(context.Background(), &WithdrawRequest{
		UserID: userID, Amount: amount, Method: "bank_transfer", Payout: bankPayout(),
	})
	require.NoError(t, err)
	return resp.Transaction
}

func TestSettleWithdrawalCompleted(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "own", model.RoleOwner)
	env.setEarnings(t, "own", 1000)
	trans := requestWithdrawal(t, env, "own", 1000)

	settled, err := env.settlement.SettleWithdrawal(ctx, trans.ID, &SettleRequest{Status: model.TransactionStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusCompleted, settled.Status)

	earnings, err := env.wallets.GetEarnings(ctx, nil, "own")
	require.NoError(t, err)
	assert.Equal(t, int64(0), earnings)

	_, err = env.settlement.SettleWithdrawal(ctx, trans.ID, &SettleRequest{Status: model.TransactionStatusFailed})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "status", verr.Field)
}

func TestSettleWithdrawalFailedRefundsEarnings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "own", model.RoleOwner)
	env.setEarnings(t, "own", 1200)
	trans := requestWithdrawal(t, env, "own", 1000)

	_, err := env.settlement.SettleWithdrawal(ctx, trans.ID, &SettleRequest{Status: model.TransactionStatusFailed, Reason: "account closed"})
	require.NoError(t, err)

	earnings, err := env.wallets.GetEarnings(ctx, nil, "own")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), earnings)

	stored, err := env.store.Transactions().Get(ctx, trans.ID)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionStatusFailed, stored.Status)

	notes, err := env.notifier.List(ctx, "own", 0)
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	assert.Equal(t, model.NotificationWithdrawalFailed, notes[0].Type)
	assert.Contains(t, notes[0].Message, "account closed")
}

func TestSettleRejectsNonWithdrawal(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "inv", model.RoleInvestor)
	resp, err := env.funding.Deposit(ctx, &DepositRequest{UserID: "inv", Amount: 100, Method: "card"})
	require.NoError(t, err)

	_, err = env.settlement.SettleWithdrawal(ctx, resp.Transaction.ID, &SettleRequest{Status: model.TransactionStatusCompleted})
	assert.IsType(t, &ValidationError{}, err)

	_, err = env.settlement.SettleWithdrawal(ctx, "missing", &SettleRequest{Status: model.TransactionStatusCompleted})
	assert.IsType(t, &NotFoundError{}, err)

	_, err = env.settlement.SettleWithdrawal(ctx, resp.Transaction.ID, &SettleRequest{Status: model.TransactionStatusPending})
	assert.IsType(t, &ValidationError{}, err)
}
