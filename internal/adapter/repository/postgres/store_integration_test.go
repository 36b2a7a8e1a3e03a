//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/adapter/repository/postgres"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/account"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/dashboard"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/ledger"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/transfer"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db *postgres.DB

// TestMain connects to the database and applies the schema
func TestMain(m *testing.M) {
	var err error
	db, err = postgres.NewDB(getDBConnectionString())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to database: %v", err))
	}

	if err := db.Migrate(context.Background()); err != nil {
		panic(fmt.Sprintf("Failed to migrate database: %v", err))
	}

	code := m.Run()
	db.Close()
	os.Exit(code)
}

// getDBConnectionString returns the database connection string from environment or defaults
func getDBConnectionString() string {
	if connStr := os.Getenv("DB_CONN_STR"); connStr != "" {
		return connStr
	}

	host := getenv("DB_HOST", "localhost")
	port := getenv("DB_PORT", "5432")
	user := getenv("DB_USER", "postgres")
	password := getenv("DB_PASSWORD", "postgres")
	dbname := getenv("DB_NAME", "wealthnest")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable statement_timeout=5000",
		host, port, user, password, dbname)
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// openOwner seeds a profile and opens its three vaults
func openOwner(t *testing.T, ctx context.Context, store *postgres.Store, name string) (*domain.OwnerProfile, []*domain.Vault) {
	t.Helper()

	targetYear := time.Now().Year() + 30
	profile := &domain.OwnerProfile{
		ID:                uuid.New(),
		DisplayName:       name,
		Email:             fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		PublicID:          domain.MinPublicID + rand.Intn(domain.MaxPublicID-domain.MinPublicID),
		PensionTargetYear: &targetYear,
	}
	require.NoError(t, postgres.UpsertProfile(ctx, db, profile))

	vaults, err := account.NewAccountService(store).OpenAccount(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, vaults, 3)

	return profile, vaults
}

func TestLedgerFlow_DepositWithdrawReconcile(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewStore(db)
	owner, vaults := openOwner(t, ctx, store, "ada")
	general := vaults[0]

	ledgerService := ledger.NewLedgerService(store, nil, nil)

	_, err := ledgerService.Deposit(ctx, ledger.DepositInput{
		OwnerID: owner.ID,
		VaultID: general.ID,
		Amount:  decimal.RequireFromString("100.00"),
	})
	require.NoError(t, err)

	result, err := ledgerService.Withdraw(ctx, ledger.WithdrawInput{
		OwnerID: owner.ID,
		VaultID: general.ID,
		Amount:  decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0.25", result.Fee.StringFixed(2))
	assert.Equal(t, "49.75", result.Vault.Balance.StringFixed(2))

	stored, err := store.Repositories().Vaults.GetByID(ctx, general.ID)
	require.NoError(t, err)
	assert.Equal(t, "49.75", stored.Balance.StringFixed(2))

	page, err := dashboard.NewDashboardService(store).ListTransactions(ctx, owner.ID, &general.ID, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)

	report, err := dashboard.NewDashboardService(store).Reconcile(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
}

func TestLedgerFlow_InsufficientFundsLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewStore(db)
	owner, vaults := openOwner(t, ctx, store, "grace")
	emergency := vaults[1]

	ledgerService := ledger.NewLedgerService(store, nil, nil)

	_, err := ledgerService.Withdraw(ctx, ledger.WithdrawInput{
		OwnerID: owner.ID,
		VaultID: emergency.ID,
		Amount:  decimal.RequireFromString("1.00"),
	})
	var insufficient *domain.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)

	count, err := store.Repositories().Transactions.Count(ctx, domain.TransactionFilter{OwnerID: owner.ID})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestTransferFlow_PeerTransferMovesBothSides(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewStore(db)
	sender, senderVaults := openOwner(t, ctx, store, "alan")
	recipient, recipientVaults := openOwner(t, ctx, store, "edsger")

	_, err := ledger.NewLedgerService(store, nil, nil).Deposit(ctx, ledger.DepositInput{
		OwnerID: sender.ID,
		VaultID: senderVaults[0].ID,
		Amount:  decimal.RequireFromString("80.00"),
	})
	require.NoError(t, err)

	_, err = transfer.NewTransferService(store, nil).TransferToUser(ctx, transfer.TransferToUserInput{
		SenderID:          sender.ID,
		SourceVaultID:     senderVaults[0].ID,
		RecipientPublicID: fmt.Sprint(recipient.PublicID),
		Amount:            decimal.RequireFromString("30.00"),
	})
	require.NoError(t, err)

	vaultRepo := store.Repositories().Vaults
	senderGeneral, err := vaultRepo.GetByID(ctx, senderVaults[0].ID)
	require.NoError(t, err)
	recipientGeneral, err := vaultRepo.GetByID(ctx, recipientVaults[0].ID)
	require.NoError(t, err)

	assert.Equal(t, "50.00", senderGeneral.Balance.StringFixed(2))
	assert.Equal(t, "30.00", recipientGeneral.Balance.StringFixed(2))
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewStore(db)
	owner, vaults := openOwner(t, ctx, store, "barbara")
	general := vaults[0]

	err := store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		locked, err := repos.Vaults.LockForUpdate(ctx, general.ID)
		if err != nil {
			return err
		}
		vault := locked[general.ID]
		vault.Balance = decimal.RequireFromString("999.00")
		if err := repos.Vaults.Update(ctx, vault); err != nil {
			return err
		}
		return fmt.Errorf("injected failure")
	})
	require.Error(t, err)

	stored, err := store.Repositories().Vaults.GetByID(ctx, general.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance.IsZero())

	_, err = account.NewAccountService(store).OpenAccount(ctx, owner.ID)
	require.NoError(t, err)
}

func TestVaultRepository_CreateDuplicateType(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewStore(db)
	owner, _ := openOwner(t, ctx, store, "ken")

	now := time.Now().UTC()
	err := store.Repositories().Vaults.Create(ctx, &domain.Vault{
		ID:        uuid.New(),
		OwnerID:   owner.ID,
		VaultType: domain.VaultTypeGeneral,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	})
	assert.ErrorIs(t, err, domain.ErrVaultExists)
}

func TestVaultRepository_LockForUpdateMissing(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewStore(db)

	err := store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		_, err := repos.Vaults.LockForUpdate(ctx, uuid.New())
		return err
	})
	assert.ErrorIs(t, err, domain.ErrVaultNotFound)
}

// runConcurrently starts every call at once and collects their errors
func runConcurrently(calls []func() error) []error {
	errs := make([]error, len(calls))
	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call func() error) {
			defer wg.Done()
			errs[i] = call()
		}(i, call)
	}
	wg.Wait()
	return errs
}

func TestLedgerFlow_ConcurrentDepositsAndWithdrawals(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewStore(db)
	owner, vaults := openOwner(t, ctx, store, "margaret")
	general := vaults[0]
	ledgerService := ledger.NewLedgerService(store, nil, nil)

	_, err := ledgerService.Deposit(ctx, ledger.DepositInput{OwnerID: owner.ID, VaultID: general.ID, Amount: decimal.RequireFromString("50.00")})
	require.NoError(t, err)

	const rounds = 10
	var calls []func() error
	for i := 0; i < rounds; i++ {
		calls = append(calls,
			func() error {
				_, err := ledgerService.Deposit(ctx, ledger.DepositInput{OwnerID: owner.ID, VaultID: general.ID, Amount: decimal.RequireFromString("5.00")})
				return err
			},
			func() error {
				_, err := ledgerService.Withdraw(ctx, ledger.WithdrawInput{OwnerID: owner.ID, VaultID: general.ID, Amount: decimal.RequireFromString("10.00")})
				return err
			},
		)
	}

	withdrawn := 0
	for i, err := range runConcurrently(calls) {
		if i%2 == 0 {
			require.NoError(t, err, "deposit must wait for the vault lock, not abort")
			continue
		}
		if err == nil {
			withdrawn++
			continue
		}
		var insufficient *domain.InsufficientFundsError
		require.ErrorAs(t, err, &insufficient)
	}

	want := decimal.RequireFromString("100.00").Sub(decimal.RequireFromString("10.05").Mul(decimal.NewFromInt(int64(withdrawn))))
	stored, err := store.Repositories().Vaults.GetByID(ctx, general.ID)
	require.NoError(t, err)
	assert.False(t, stored.Balance.IsNegative())
	assert.Equal(t, want.StringFixed(2), stored.Balance.StringFixed(2))

	report, err := dashboard.NewDashboardService(store).Reconcile(ctx, owner.ID)
	require.NoError(t, err)
	assert.True(t, report.Balanced)
}

func TestTransferFlow_OppositeDirectionsDoNotDeadlock(t *testing.T) {
	ctx := context.Background()
	store := postgres.NewStore(db)
	alice, aliceVaults := openOwner(t, ctx, store, "radia")
	bob, bobVaults := openOwner(t, ctx, store, "leslie")

	ledgerService := ledger.NewLedgerService(store, nil, nil)
	for _, owner := range []struct {
		id    uuid.UUID
		vault *domain.Vault
	}{{alice.ID, aliceVaults[0]}, {bob.ID, bobVaults[0]}} {
		_, err := ledgerService.Deposit(ctx, ledger.DepositInput{OwnerID: owner.id, VaultID: owner.vault.ID, Amount: decimal.RequireFromString("100.00")})
		require.NoError(t, err)
	}

	transferService := transfer.NewTransferService(store, nil)
	send := func(from *domain.OwnerProfile, source *domain.Vault, to *domain.OwnerProfile) func() error {
		return func() error {
			_, err := transferService.TransferToUser(ctx, transfer.TransferToUserInput{
				SenderID:          from.ID,
				SourceVaultID:     source.ID,
				RecipientPublicID: fmt.Sprint(to.PublicID),
				Amount:            decimal.RequireFromString("5.00"),
			})
			return err
		}
	}

	var calls []func() error
	for i := 0; i < 10; i++ {
		calls = append(calls, send(alice, aliceVaults[0], bob), send(bob, bobVaults[0], alice))
	}
	for _, err := range runConcurrently(calls) {
		require.NoError(t, err)
	}

	vaultRepo := store.Repositories().Vaults
	aliceGeneral, err := vaultRepo.GetByID(ctx, aliceVaults[0].ID)
	require.NoError(t, err)
	bobGeneral, err := vaultRepo.GetByID(ctx, bobVaults[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "100.00", aliceGeneral.Balance.StringFixed(2))
	assert.Equal(t, "100.00", bobGeneral.Balance.StringFixed(2))

	dashboardService := dashboard.NewDashboardService(store)
	for _, ownerID := range []uuid.UUID{alice.ID, bob.ID} {
		report, err := dashboardService.Reconcile(ctx, ownerID)
		require.NoError(t, err)
		assert.True(t, report.Balanced)
	}
}
