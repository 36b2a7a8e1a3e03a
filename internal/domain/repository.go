package domain

import (
	"context"

	"github.com/google/uuid"
)

// VaultRepository defines the interface for vault persistence operations
type VaultRepository interface {
	// GetByID retrieves a vault by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Vault, error)

	// GetByOwnerAndType retrieves the single vault of the given type for an owner
	GetByOwnerAndType(ctx context.Context, ownerID uuid.UUID, vaultType VaultType) (*Vault, error)

	// ListByOwner retrieves all vaults of an owner
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Vault, error)

	// LockForUpdate reads the given vaults and holds row locks on them until the
	// surrounding unit of work ends. Locks are taken in ascending ID order.
	// Returns ErrVaultNotFound if any ID is missing.
	LockForUpdate(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]*Vault, error)

	// Create creates a new vault
	Create(ctx context.Context, vault *Vault) error

	// Update persists the balance and lock fields of a vault
	Update(ctx context.Context, vault *Vault) error
}

// TransactionFilter narrows a transaction listing
type TransactionFilter struct {
	OwnerID uuid.UUID
	VaultID *uuid.UUID // nil = all vaults of the owner
	Limit   int        // 0 = no limit
	Offset  int
}

// TransactionRepository defines the interface for the append-only transaction log
type TransactionRepository interface {
	// Append records new transactions. Existing entries are never modified.
	Append(ctx context.Context, txs ...*Transaction) error

	// List retrieves transactions newest first
	List(ctx context.Context, filter TransactionFilter) ([]*Transaction, error)

	// Count returns the number of transactions matching the filter (Limit/Offset ignored)
	Count(ctx context.Context, filter TransactionFilter) (int, error)
}

// GoalRepository defines the interface for goal persistence operations
type GoalRepository interface {
	// GetByID retrieves a goal by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Goal, error)

	// LockForUpdate reads a goal and holds its row lock until the unit of work ends
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Goal, error)

	// ListByOwner retrieves all goals of an owner, newest first
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Goal, error)

	// Create creates a new goal
	Create(ctx context.Context, goal *Goal) error

	// Update persists name, target, saved amount, and status
	Update(ctx context.Context, goal *Goal) error

	// Delete removes a goal
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProfileRepository is the engine's view of the external profile store
type ProfileRepository interface {
	// GetByID retrieves an owner profile
	GetByID(ctx context.Context, id uuid.UUID) (*OwnerProfile, error)

	// FindByPublicID returns every profile carrying the public id (normally zero or one)
	FindByPublicID(ctx context.Context, publicID int) ([]*OwnerProfile, error)

	// FindByEmail returns every profile with the email, compared case-insensitively
	FindByEmail(ctx context.Context, email string) ([]*OwnerProfile, error)

	// SetPensionTargetYear is the dedicated accessor for the one profile field the engine writes
	SetPensionTargetYear(ctx context.Context, ownerID uuid.UUID, year int) error
}

// Repositories groups the repositories that take part in one unit of work
type Repositories struct {
	Vaults       VaultRepository
	Transactions TransactionRepository
	Goals        GoalRepository
	Profiles     ProfileRepository
}

// Store owns all persistent state and hands out units of work
type Store interface {
	// Repositories returns repositories for reads outside any unit of work
	Repositories() Repositories

	// RunInTx runs fn inside one all-or-nothing unit of work.
	// If fn returns an error nothing it wrote is kept.
	// A concurrent-modification abort is reported as *ConflictError.
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
