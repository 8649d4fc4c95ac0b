package repository

import (
	"context"
	"testing"

	"crowdfund/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// newDryRunStore 只生成 SQL 不连库
func newDryRunStore(t *testing.T) (*GormStore, *[]string) {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "root:@tcp(127.0.0.1:3306)/crowdfund?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, SkipDefaultTransaction: true})
	require.NoError(t, err)

	var statements []string
	capture := func(tx *gorm.DB) {
		statements = append(statements, tx.Statement.SQL.String())
	}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:capture_query", capture))
	require.NoError(t, db.Callback().Update().After("gorm:update").Register("test:capture_update", capture))
	return NewGormStore(db), &statements
}

func TestGormProjectGetForUpdateLocksRow(t *testing.T) {
	store, statements := newDryRunStore(t)

	_, err := store.Projects().GetForUpdate(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, *statements, 1)
	assert.Contains(t, (*statements)[0], "FOR UPDATE")

	*statements = nil
	_, err = store.Projects().Get(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, *statements, 1)
	assert.NotContains(t, (*statements)[0], "FOR UPDATE")
}

func TestGormAddFundingIsIncrement(t *testing.T) {
	store, statements := newDryRunStore(t)

	// DryRun 不返回影响行数
	err := store.Projects().AddFunding(context.Background(), "p1", 500)
	assert.ErrorIs(t, err, ErrProjectNotFound)
	require.Len(t, *statements, 1)
	assert.Contains(t, (*statements)[0], "current_amount + ?")
	assert.NotContains(t, (*statements)[0], "status")
}

func TestGormUpdateStatusUnknownIDIsNotFound(t *testing.T) {
	store, statements := newDryRunStore(t)

	err := store.Transactions().UpdateStatus(context.Background(), "missing",
		model.TransactionStatusProcessing, model.TransactionStatusCompleted)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
	require.Len(t, *statements, 2)
	assert.Contains(t, (*statements)[0], "UPDATE")
	assert.Contains(t, (*statements)[1], "count(*)")
}
