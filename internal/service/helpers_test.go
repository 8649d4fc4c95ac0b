package service

import (
	"context"
	"sync"
	"testing"

	"crowdfund/internal/config"
	"crowdfund/internal/infrastructure/lock"
	"crowdfund/internal/model"
	"crowdfund/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	mu      sync.Mutex
	err     error
	charged []int64
}

func (g *stubGateway) ConfirmPayment(ctx context.Context, amount int64, method model.PaymentMethod) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charged = append(g.charged, amount)
	return g.err
}

type testEnv struct {
	cfg        *config.Config
	store      *repository.MemoryStore
	gateway    *stubGateway
	fees       *FeeCalculator
	wallets    *WalletService
	notifier   *NotificationService
	directory  *DirectoryService
	funding    *FundingService
	settlement *SettlementService
	portfolio  *PortfolioService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Default()
	return newTestEnvWithConfig(t, cfg)
}

func newTestEnvWithConfig(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	fees, err := NewFeeCalculator(&cfg.Funding)
	require.NoError(t, err)

	locker := lock.NewLocalLocker()
	gateway := &stubGateway{}
	wallets := NewWalletService(store)
	notifier := NewNotificationService(store, cfg.Kafka.Topic.Notifications)
	directory := NewDirectoryService(store, notifier)

	return &testEnv{
		cfg:        cfg,
		store:      store,
		gateway:    gateway,
		fees:       fees,
		wallets:    wallets,
		notifier:   notifier,
		directory:  directory,
		funding:    NewFundingService(cfg, store, wallets, fees, directory, notifier, gateway, locker),
		settlement: NewSettlementService(cfg, store, wallets, notifier, locker),
		portfolio:  NewPortfolioService(store, directory, wallets),
	}
}

func (e *testEnv) addUser(t *testing.T, id string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{ID: id, Email: id + "@test.local", Name: id, Role: role, Status: model.StatusApproved}
	require.NoError(t, e.store.Users().Upsert(context.Background(), user))
	return user
}

func (e *testEnv) addProject(t *testing.T, id, ownerID string, status model.ReviewStatus) *model.Project {
	t.Helper()
	project := &model.Project{
		ID:           id,
		OwnerID:      ownerID,
		Name:         "project " + id,
		TargetAmount: 100000,
		ReturnRate:   decimal.RequireFromString("0.10"),
		PeriodMonths: 6,
		Status:       status,
	}
	require.NoError(t, e.store.Projects().Upsert(context.Background(), project))
	return project
}

func (e *testEnv) setBalance(t *testing.T, userID string, amount int64) {
	t.Helper()
	_, err := e.wallets.AdjustBalance(context.Background(), nil, userID, amount, AdjustSet)
	require.NoError(t, err)
}

func (e *testEnv) setEarnings(t *testing.T, userID string, amount int64) {
	t.Helper()
	_, err := e.wallets.AdjustEarnings(context.Background(), nil, userID, amount, AdjustSet)
	require.NoError(t, err)
}

func (e *testEnv) transactions(t *testing.T, userID string) []*model.Transaction {
	t.Helper()
	list, _, err := e.store.Transactions().ListByUserID(context.Background(), userID, 1, 100)
	require.NoError(t, err)
	return list
}

func bankPayout() model.PayoutDetails {
	return model.PayoutDetails{BankName: "NBE", AccountNumber: "123456", HolderName: "Owner"}
}
