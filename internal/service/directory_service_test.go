package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"crowdfund/internal/model"
	"crowdfund/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	require.NoError(t, env.directory.SeedAdmin(ctx, &env.cfg.Seed))

	user, err := env.directory.RegisterUser(ctx, &RegisterUserRequest{Email: " Sara@Example.com ", Name: "Sara", Role: model.RoleInvestor})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, user.Status)
	assert.Equal(t, "sara@example.com", user.Email)
	assert.NotEmpty(t, user.ID)

	adminNotes, err := env.notifier.List(ctx, env.cfg.Seed.AdminID, 0)
	require.NoError(t, err)
	require.Len(t, adminNotes, 1)
	assert.Equal(t, model.NotificationNewUser, adminNotes[0].Type)

	_, err = env.directory.RegisterUser(ctx, &RegisterUserRequest{Email: "sara@example.com", Name: "Other", Role: model.RoleOwner})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "email", verr.Field)

	_, err = env.directory.RegisterUser(ctx, &RegisterUserRequest{Email: "x@example.com", Name: "X", Role: model.RoleAdmin})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "role", verr.Field)
}

func TestRegisterUserConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		rejects int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.directory.RegisterUser(ctx, &RegisterUserRequest{Email: "dup@example.com", Name: "Dup", Role: model.RoleInvestor})
			mu.Lock()
			defer mu.Unlock()
			var verr *ValidationError
			switch {
			case err == nil:
				ok++
			case errors.As(err, &verr) && verr.Field == "email":
				rejects++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, rejects)

	pending, err := env.store.Users().ListByStatus(ctx, model.StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestReviewUserNotifies(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.directory.RegisterUser(ctx, &RegisterUserRequest{Email: "o@example.com", Name: "O", Role: model.RoleOwner})
	require.NoError(t, err)

	reviewed, err := env.directory.ReviewUser(ctx, user.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, reviewed.Status)

	notes, err := env.notifier.List(ctx, user.ID, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationAccountRejected, notes[0].Type)

	_, err = env.directory.ReviewUser(ctx, "ghost", true)
	assert.IsType(t, &NotFoundError{}, err)
}

func TestCreateAndReviewProject(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "own", model.RoleOwner)
	env.addUser(t, "inv", model.RoleInvestor)

	req := &CreateProjectRequest{
		OwnerID:      "own",
		Name:         "Olive farm",
		TargetAmount: 200000,
		ReturnRate:   decimal.RequireFromString("0.12"),
		PeriodMonths: 12,
	}
	project, err := env.directory.CreateProject(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, project.Status)
	assert.Equal(t, int64(0), project.CurrentAmount)

	bad := *req
	bad.OwnerID = "inv"
	_, err = env.directory.CreateProject(ctx, &bad)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "owner_id", verr.Field)

	bad = *req
	bad.ReturnRate = decimal.RequireFromString("1.5")
	_, err = env.directory.CreateProject(ctx, &bad)
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "return_rate", verr.Field)

	approved, err := env.directory.ReviewProject(ctx, project.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)

	notes, err := env.notifier.List(ctx, "own", 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, model.NotificationProjectApproved, notes[0].Type)

	list, err := env.directory.ListProjects(ctx, repository.ProjectFilter{Status: model.StatusApproved})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, project.ID, list[0].ID)
}

func TestReviewProjectKeepsFundedAmount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "own", model.RoleOwner)
	env.addUser(t, "inv", model.RoleInvestor)
	env.addProject(t, "p1", "own", model.StatusApproved)
	env.setBalance(t, "inv", 1000)

	_, err := env.funding.Invest(ctx, &InvestRequest{InvestorID: "inv", ProjectID: "p1", Amount: 700})
	require.NoError(t, err)

	project, err := env.directory.ReviewProject(ctx, "p1", true)
	require.NoError(t, err)
	assert.Equal(t, int64(700), project.CurrentAmount)
}

func TestSaveProjectDoesNotOverwriteFunding(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.addUser(t, "own", model.RoleOwner)
	env.addUser(t, "inv", model.RoleInvestor)
	stale := env.addProject(t, "p1", "own", model.StatusApproved)
	env.setBalance(t, "inv", 1000)

	_, err := env.funding.Invest(ctx, &InvestRequest{InvestorID: "inv", ProjectID: "p1", Amount: 600})
	require.NoError(t, err)

	stale.Description = "更新后的介绍"
	require.Equal(t, int64(0), stale.CurrentAmount)
	require.NoError(t, env.directory.SaveProject(ctx, stale))

	project, err := env.directory.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "更新后的介绍", project.Description)
	assert.Equal(t, int64(600), project.CurrentAmount)

	invested, err := env.store.Investments().SumByProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, invested, project.CurrentAmount)
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.directory.SeedAdmin(ctx, &env.cfg.Seed))
	require.NoError(t, env.directory.SeedAdmin(ctx, &env.cfg.Seed))

	admin, err := env.directory.GetUser(ctx, env.cfg.Seed.AdminID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, admin.Role)
	assert.Equal(t, model.StatusApproved, admin.Status)
}
