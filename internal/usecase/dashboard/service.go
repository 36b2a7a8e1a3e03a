package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/unitofwork"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/vesting"
	"github.com/shopspring/decimal"
)

const (
	// DefaultTransactionLimit applies when a listing asks for no specific page size
	DefaultTransactionLimit = 20
	// MaxTransactionLimit is the largest page a listing may request
	MaxTransactionLimit = 100
)

// Overview represents an owner's vaults and their combined balance
type Overview struct {
	Vaults       []*domain.Vault
	TotalBalance decimal.Decimal
	Pension      vesting.Status
	ActiveGoals  int
}

// TransactionPage is one page of the transaction log
type TransactionPage struct {
	Transactions []*domain.Transaction
	Total        int
	Limit        int
	Offset       int
}

// VaultReconciliation compares a stored balance with the replayed log
type VaultReconciliation struct {
	VaultID    uuid.UUID
	VaultType  domain.VaultType
	Balance    decimal.Decimal
	Replayed   decimal.Decimal
	Difference decimal.Decimal
}

// ReconcileReport is the outcome of a balance audit
type ReconcileReport struct {
	Vaults   []VaultReconciliation
	Balanced bool
}

// DashboardService handles read-only dashboard operations
type DashboardService struct {
	Store domain.Store
	Now   func() time.Time
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(store domain.Store) *DashboardService {
	return &DashboardService{
		Store: store,
		Now:   time.Now,
	}
}

// GetOverview summarises the owner's vaults
// Logic:
//   - Vaults: all vaults of the owner, general first
//   - TotalBalance: sum of the vault balances
//   - Pension: vesting status of the pension vault
//   - ActiveGoals: goals still accepting allocations
func (s *DashboardService) GetOverview(ctx context.Context, ownerID uuid.UUID) (*Overview, error) {
	repos := s.Store.Repositories()

	// 1. Vaults and their total
	vaults, err := repos.Vaults.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaults: %w", err)
	}
	if len(vaults) == 0 {
		return nil, domain.ErrVaultNotFound
	}

	total := decimal.Zero
	var pension *domain.Vault
	for _, vault := range vaults {
		total = total.Add(vault.Balance)
		if vault.VaultType == domain.VaultTypePension {
			pension = vault
		}
	}

	overview := &Overview{Vaults: vaults, TotalBalance: total}

	// 2. Pension status
	if pension != nil {
		targetYear, err := unitofwork.TargetYear(ctx, repos, ownerID)
		if err != nil {
			return nil, err
		}
		overview.Pension = vesting.Snapshot(pension, targetYear, s.Now())
	}

	// 3. Active goals
	goals, err := repos.Goals.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	for _, goal := range goals {
		if goal.IsActive() {
			overview.ActiveGoals++
		}
	}

	return overview, nil
}

// ListTransactions returns the owner's transactions, newest first.
// A zero limit uses DefaultTransactionLimit. A non-nil vaultID narrows the
// listing to that vault, which must belong to the owner.
func (s *DashboardService) ListTransactions(ctx context.Context, ownerID uuid.UUID, vaultID *uuid.UUID, limit, offset int) (*TransactionPage, error) {
	if limit == 0 {
		limit = DefaultTransactionLimit
	}
	if limit < 1 || limit > MaxTransactionLimit {
		return nil, domain.NewValidationError("limit", fmt.Sprintf("limit must be between 1 and %d", MaxTransactionLimit))
	}
	if offset < 0 {
		return nil, domain.NewValidationError("offset", "offset cannot be negative")
	}

	repos := s.Store.Repositories()
	if vaultID != nil {
		vault, err := repos.Vaults.GetByID(ctx, *vaultID)
		if err != nil {
			if domain.IsNotFound(err) {
				return nil, domain.ErrVaultNotFound
			}
			return nil, fmt.Errorf("failed to load vault: %w", err)
		}
		if !vault.OwnedBy(ownerID) {
			return nil, domain.ErrVaultNotFound
		}
	}

	filter := domain.TransactionFilter{OwnerID: ownerID, VaultID: vaultID, Limit: limit, Offset: offset}
	txs, err := repos.Transactions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	total, err := repos.Transactions.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}

	return &TransactionPage{Transactions: txs, Total: total, Limit: limit, Offset: offset}, nil
}

// Reconcile replays every vault's transaction log and compares it with the
// stored balance. Entries that do not affect the balance are skipped.
// The vaults are locked first so no write lands between the two reads.
func (s *DashboardService) Reconcile(ctx context.Context, ownerID uuid.UUID) (*ReconcileReport, error) {
	report := &ReconcileReport{Balanced: true}

	err := s.Store.RunInTx(ctx, func(ctx context.Context, repos domain.Repositories) error {
		vaults, err := repos.Vaults.ListByOwner(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("failed to list vaults: %w", err)
		}
		if len(vaults) == 0 {
			return domain.ErrVaultNotFound
		}

		ids := make([]uuid.UUID, 0, len(vaults))
		for _, vault := range vaults {
			ids = append(ids, vault.ID)
		}
		locked, err := repos.Vaults.LockForUpdate(ctx, ids...)
		if err != nil {
			return fmt.Errorf("failed to lock vaults: %w", err)
		}

		for _, listed := range vaults {
			vault := locked[listed.ID]
			vaultID := vault.ID
			txs, err := repos.Transactions.List(ctx, domain.TransactionFilter{OwnerID: ownerID, VaultID: &vaultID})
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			replayed := domain.ReplayBalance(txs)
			diff := vault.Balance.Sub(replayed)
			report.Vaults = append(report.Vaults, VaultReconciliation{
				VaultID:    vault.ID,
				VaultType:  vault.VaultType,
				Balance:    vault.Balance,
				Replayed:   replayed,
				Difference: diff,
			})
			if !diff.IsZero() {
				report.Balanced = false
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}
