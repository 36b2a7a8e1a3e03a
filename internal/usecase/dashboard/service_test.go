package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/adapter/repository/memory"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/usecasetest"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/vesting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*DashboardService, *memory.Store, *usecasetest.Owner) {
	store := memory.NewStore()
	service := NewDashboardService(store)
	service.Now = func() time.Time { return now }
	return service, store, usecasetest.NewOwner(t, store, "ana", 123456, usecasetest.Year(2060))
}

func TestGetOverview(t *testing.T) {
	service, store, owner := newService(t)
	usecasetest.Fund(t, store, owner.General, "100.00")
	usecasetest.Fund(t, store, owner.Emergency, "50.25")
	require.NoError(t, store.Repositories().Goals.Create(context.Background(), &domain.Goal{
		ID: uuid.New(), OwnerID: owner.Profile.ID, Name: "Trip",
		TargetAmount: decimal.NewFromInt(10), SavedAmount: decimal.Zero, Status: domain.GoalStatusActive, CreatedAt: now,
	}))

	overview, err := service.GetOverview(context.Background(), owner.Profile.ID)
	require.NoError(t, err)

	require.Len(t, overview.Vaults, 3)
	assert.Equal(t, "150.25", overview.TotalBalance.StringFixed(2))
	assert.Equal(t, vesting.StateUnfunded, overview.Pension.State)
	assert.Equal(t, 1, overview.ActiveGoals)
}

func TestGetOverview_UnknownOwner(t *testing.T) {
	service, _, _ := newService(t)

	_, err := service.GetOverview(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrVaultNotFound)
}

func TestListTransactions(t *testing.T) {
	service, store, owner := newService(t)
	for i := 0; i < 5; i++ {
		usecasetest.Fund(t, store, owner.General, "1.00")
	}
	usecasetest.Fund(t, store, owner.Emergency, "2.00")
	ctx := context.Background()

	page, err := service.ListTransactions(ctx, owner.Profile.ID, nil, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)
	assert.Equal(t, DefaultTransactionLimit, page.Limit)
	assert.Len(t, page.Transactions, 6)

	page, err = service.ListTransactions(ctx, owner.Profile.ID, &owner.General.ID, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Transactions, 2)
}

func TestListTransactions_Validation(t *testing.T) {
	service, store, owner := newService(t)
	stranger := usecasetest.NewOwner(t, store, "eve", 654321, nil)
	ctx := context.Background()

	_, err := service.ListTransactions(ctx, owner.Profile.ID, nil, 101, 0)
	assert.ErrorContains(t, err, "between 1 and 100")

	_, err = service.ListTransactions(ctx, owner.Profile.ID, nil, -1, 0)
	assert.ErrorContains(t, err, "between 1 and 100")

	_, err = service.ListTransactions(ctx, owner.Profile.ID, nil, 10, -1)
	assert.ErrorContains(t, err, "offset")

	_, err = service.ListTransactions(ctx, stranger.Profile.ID, &owner.General.ID, 10, 0)
	assert.ErrorIs(t, err, domain.ErrVaultNotFound)
}

func TestReconcile(t *testing.T) {
	service, store, owner := newService(t)
	usecasetest.Fund(t, store, owner.General, "10.00")
	ctx := context.Background()

	report, err := service.Reconcile(ctx, owner.Profile.ID)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.Len(t, report.Vaults, 3)

	// Corrupt the stored balance without a log entry
	require.NoError(t, store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		v, err := repos.Vaults.GetByID(ctx, owner.General.ID)
		if err != nil {
			return err
		}
		v.Balance = v.Balance.Add(decimal.NewFromInt(1))
		return repos.Vaults.Update(ctx, v)
	}))

	report, err = service.Reconcile(ctx, owner.Profile.ID)
	require.NoError(t, err)
	assert.False(t, report.Balanced)
	assert.Equal(t, "1.00", report.Vaults[0].Difference.StringFixed(2))
}
