package service

import (
	"context"
	"testing"

	"crowdfund/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalletServiceMissingWalletIsZero(t *testing.T) {
	ctx := context.Background()
	wallets := NewWalletService(repository.NewMemoryStore())

	balance, err := wallets.GetBalance(ctx, nil, "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	earnings, err := wallets.GetEarnings(ctx, nil, "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(0), earnings)
}

func TestWalletServiceAdjustModes(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	wallets := NewWalletService(store)

	got, err := wallets.AdjustBalance(ctx, nil, "u1", 300, AdjustAdd)
	require.NoError(t, err)
	assert.Equal(t, int64(300), got)

	got, err = wallets.AdjustBalance(ctx, nil, "u1", 100, AdjustSubtract)
	require.NoError(t, err)
	assert.Equal(t, int64(200), got)

	got, err = wallets.AdjustBalance(ctx, nil, "u1", 1000, AdjustSubtract)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)

	got, err = wallets.AdjustEarnings(ctx, nil, "u1", 75, AdjustSet)
	require.NoError(t, err)
	assert.Equal(t, int64(75), got)

	wallet, err := store.Wallets().Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.Balance)
	assert.Equal(t, int64(75), wallet.Earnings)
}

func TestWalletServiceRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	wallets := NewWalletService(store)

	_, err := wallets.AdjustBalance(ctx, nil, "u1", -5, AdjustAdd)
	assert.IsType(t, &ValidationError{}, err)

	_, err = wallets.AdjustBalance(ctx, nil, "u1", 5, AdjustMode("double"))
	assert.IsType(t, &ValidationError{}, err)

	_, err = store.Wallets().Get(ctx, "u1")
	assert.ErrorIs(t, err, repository.ErrWalletNotFound)
}

func TestWalletServiceUsesCallerTransaction(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	wallets := NewWalletService(store)

	err := store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := wallets.AdjustBalance(ctx, tx, "u1", 500, AdjustAdd); err != nil {
			return err
		}
		balance, err := wallets.GetBalance(ctx, tx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(500), balance)
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	balance, err := wallets.GetBalance(ctx, nil, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}
