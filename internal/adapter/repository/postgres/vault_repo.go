package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/shopspring/decimal"
)

const vaultColumns = `id, owner_id, vault_type, balance, vesting_start_date, locked_until, created_at, updated_at`

// vaultRepository implements domain.VaultRepository
type vaultRepository struct {
	db querier
}

// newVaultRepository creates a vault repository bound to a connection or transaction
func newVaultRepository(db querier) domain.VaultRepository {
	return &vaultRepository{db: db}
}

// GetByID retrieves a vault by its ID
func (r *vaultRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults WHERE id = $1`

	vault, err := scanVault(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVaultNotFound
		}
		return nil, fmt.Errorf("failed to get vault by ID: %w", err)
	}

	return vault, nil
}

// GetByOwnerAndType retrieves the single vault of the given type for an owner
func (r *vaultRepository) GetByOwnerAndType(ctx context.Context, ownerID uuid.UUID, vaultType domain.VaultType) (*domain.Vault, error) {
	query := `SELECT ` + vaultColumns + ` FROM vaults WHERE owner_id = $1 AND vault_type = $2`

	vault, err := scanVault(r.db.QueryRowContext(ctx, query, ownerID, string(vaultType)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrVaultNotFound
		}
		return nil, fmt.Errorf("failed to get %s vault: %w", vaultType, err)
	}

	return vault, nil
}

// ListByOwner retrieves all vaults of an owner: general, emergency, pension
func (r *vaultRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Vault, error) {
	query := `
		SELECT ` + vaultColumns + `
		FROM vaults
		WHERE owner_id = $1
		ORDER BY CASE vault_type WHEN 'general' THEN 0 WHEN 'emergency' THEN 1 ELSE 2 END
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list vaults: %w", err)
	}
	defer rows.Close()

	vaults := make([]*domain.Vault, 0, len(domain.AllVaultTypes))
	for rows.Next() {
		vault, err := scanVault(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vault: %w", err)
		}
		vaults = append(vaults, vault)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list vaults: %w", err)
	}

	return vaults, nil
}

// LockForUpdate reads the vaults and holds their row locks in ascending ID order
func (r *vaultRepository) LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*domain.Vault, error) {
	query := `
		SELECT ` + vaultColumns + `
		FROM vaults
		WHERE id = ANY($1::uuid[])
		ORDER BY id
		FOR UPDATE
	`

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}

	rows, err := r.db.QueryContext(ctx, query, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("failed to lock vaults: %w", err)
	}
	defer rows.Close()

	locked := make(map[uuid.UUID]*domain.Vault, len(ids))
	for rows.Next() {
		vault, err := scanVault(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vault: %w", err)
		}
		locked[vault.ID] = vault
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to lock vaults: %w", err)
	}

	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return nil, domain.ErrVaultNotFound
		}
	}

	return locked, nil
}

// Create creates a new vault
func (r *vaultRepository) Create(ctx context.Context, vault *domain.Vault) error {
	if err := vault.Validate(); err != nil {
		return fmt.Errorf("invalid vault: %w", err)
	}

	query := `
		INSERT INTO vaults (` + vaultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		vault.ID,
		vault.OwnerID,
		string(vault.VaultType),
		vault.Balance.StringFixed(domain.MoneyPlaces),
		nullTime(vault.VestingStartDate),
		nullTime(vault.LockedUntil),
		vault.CreatedAt,
		vault.UpdatedAt,
	)
	if err != nil {
		if pqErrorCode(err) == codeUniqueViolation {
			return domain.ErrVaultExists
		}
		return fmt.Errorf("failed to create vault: %w", err)
	}

	return nil
}

// Update persists the balance and lock fields of a vault
func (r *vaultRepository) Update(ctx context.Context, vault *domain.Vault) error {
	if err := vault.Validate(); err != nil {
		return fmt.Errorf("invalid vault: %w", err)
	}

	query := `
		UPDATE vaults
		SET balance = $2, vesting_start_date = $3, locked_until = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		vault.ID,
		vault.Balance.StringFixed(domain.MoneyPlaces),
		nullTime(vault.VestingStartDate),
		nullTime(vault.LockedUntil),
		vault.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update vault: %w", err)
	}

	return requireOneRow(result, domain.ErrVaultNotFound)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVault(row rowScanner) (*domain.Vault, error) {
	var vault domain.Vault
	var vaultType, balanceStr string
	var vestingStart, lockedUntil sql.NullTime

	err := row.Scan(
		&vault.ID,
		&vault.OwnerID,
		&vaultType,
		&balanceStr,
		&vestingStart,
		&lockedUntil,
		&vault.CreatedAt,
		&vault.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	vault.VaultType = domain.VaultType(vaultType)

	// Parse balance (NUMERIC)
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	vault.Balance = balance

	vault.VestingStartDate = timePtr(vestingStart)
	vault.LockedUntil = timePtr(lockedUntil)

	return &vault, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func requireOneRow(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
