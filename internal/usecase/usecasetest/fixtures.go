// Package usecasetest holds fixtures shared by the use-case tests.
package usecasetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/adapter/repository/memory"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Owner is a seeded owner with one vault of each type
type Owner struct {
	Profile   *domain.OwnerProfile
	General   *domain.Vault
	Emergency *domain.Vault
	Pension   *domain.Vault
}

// Vault returns the owner's vault of the given type
func (o *Owner) Vault(vaultType domain.VaultType) *domain.Vault {
	switch vaultType {
	case domain.VaultTypeGeneral:
		return o.General
	case domain.VaultTypeEmergency:
		return o.Emergency
	default:
		return o.Pension
	}
}

// NewOwner registers a profile and opens its three vaults with zero balance
func NewOwner(t testing.TB, store *memory.Store, name string, publicID int, targetYear *int) *Owner {
	t.Helper()
	ctx := context.Background()

	profile := &domain.OwnerProfile{
		ID:                uuid.New(),
		DisplayName:       name,
		Email:             name + "@example.com",
		PublicID:          publicID,
		PensionTargetYear: targetYear,
	}
	store.AddProfile(profile)

	owner := &Owner{Profile: profile}
	now := time.Now()
	for _, vt := range domain.AllVaultTypes {
		vault := &domain.Vault{
			ID:        uuid.New(),
			OwnerID:   profile.ID,
			VaultType: vt,
			Balance:   decimal.Zero,
			CreatedAt: now,
			UpdatedAt: now,
		}
		require.NoError(t, store.Repositories().Vaults.Create(ctx, vault))
		switch vt {
		case domain.VaultTypeGeneral:
			owner.General = vault
		case domain.VaultTypeEmergency:
			owner.Emergency = vault
		case domain.VaultTypePension:
			owner.Pension = vault
		}
	}

	return owner
}

// Fund sets a vault balance directly and records a matching deposit so the
// balance still reconciles with the transaction log
func Fund(t testing.TB, store *memory.Store, vault *domain.Vault, amount string) {
	t.Helper()
	ctx := context.Background()
	value := decimal.RequireFromString(amount)

	err := store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		v, err := repos.Vaults.GetByID(ctx, vault.ID)
		if err != nil {
			return err
		}
		v.Balance = v.Balance.Add(value)
		if err := repos.Vaults.Update(ctx, v); err != nil {
			return err
		}
		return repos.Transactions.Append(ctx, domain.NewTransaction(v, value, domain.TransactionKindDeposit, "Opening deposit", time.Now()))
	})
	require.NoError(t, err)
}

// Reload fetches the committed state of a vault
func Reload(t testing.TB, store *memory.Store, vaultID uuid.UUID) *domain.Vault {
	t.Helper()
	vault, err := store.Repositories().Vaults.GetByID(context.Background(), vaultID)
	require.NoError(t, err)
	return vault
}

// Balance returns the committed balance of a vault formatted to cents
func Balance(t testing.TB, store *memory.Store, vaultID uuid.UUID) string {
	t.Helper()
	return Reload(t, store, vaultID).Balance.StringFixed(2)
}

// Transactions lists a vault's transactions, newest first
func Transactions(t testing.TB, store *memory.Store, vault *domain.Vault) []*domain.Transaction {
	t.Helper()
	txs, err := store.Repositories().Transactions.List(context.Background(), domain.TransactionFilter{
		OwnerID: vault.OwnerID,
		VaultID: &vault.ID,
	})
	require.NoError(t, err)
	return txs
}

// RequireReconciled asserts that a vault balance equals the replay of its log
func RequireReconciled(t testing.TB, store *memory.Store, vault *domain.Vault) {
	t.Helper()
	replayed := domain.ReplayBalance(Transactions(t, store, vault))
	require.Equal(t, replayed.StringFixed(2), Balance(t, store, vault.ID))
}

// Clock is a settable time source
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock fixed at now
func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

// Now returns the current fake time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to now
func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Publisher records published ledger events
type Publisher struct {
	mu     sync.Mutex
	Events []domain.LedgerEvent
	Err    error
}

func (p *Publisher) PublishLedgerEvent(_ context.Context, event domain.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
	return p.Err
}

// Types returns the published event types in order
func (p *Publisher) Types() []domain.LedgerEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]domain.LedgerEventType, 0, len(p.Events))
	for _, e := range p.Events {
		types = append(types, e.Type)
	}
	return types
}

// Year returns a pointer to year
func Year(year int) *int {
	return &year
}
