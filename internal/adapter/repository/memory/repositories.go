package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
)

type vaultRepository struct {
	scope *scope
}

func (r *vaultRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Vault, error) {
	var out *domain.Vault
	err := r.scope.read(func(st *state) error {
		v, ok := st.vaults[id]
		if !ok {
			return domain.ErrVaultNotFound
		}
		out = v.Clone()
		return nil
	})
	return out, err
}

func (r *vaultRepository) GetByOwnerAndType(_ context.Context, ownerID uuid.UUID, vaultType domain.VaultType) (*domain.Vault, error) {
	var out *domain.Vault
	err := r.scope.read(func(st *state) error {
		for _, v := range st.vaults {
			if v.OwnerID == ownerID && v.VaultType == vaultType {
				out = v.Clone()
				return nil
			}
		}
		return domain.ErrVaultNotFound
	})
	return out, err
}

func (r *vaultRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Vault, error) {
	var out []*domain.Vault
	err := r.scope.read(func(st *state) error {
		for _, v := range st.vaults {
			if v.OwnerID == ownerID {
				out = append(out, v.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return vaultTypeOrder(out[i].VaultType) < vaultTypeOrder(out[j].VaultType)
	})
	return out, err
}

// LockForUpdate returns copies of the requested vaults. The store-wide lock held
// by the unit of work already excludes concurrent writers.
func (r *vaultRepository) LockForUpdate(_ context.Context, ids ...uuid.UUID) (map[uuid.UUID]*domain.Vault, error) {
	out := make(map[uuid.UUID]*domain.Vault, len(ids))
	err := r.scope.read(func(st *state) error {
		for _, id := range ids {
			v, ok := st.vaults[id]
			if !ok {
				return domain.ErrVaultNotFound
			}
			out[id] = v.Clone()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *vaultRepository) Create(_ context.Context, vault *domain.Vault) error {
	if err := vault.Validate(); err != nil {
		return fmt.Errorf("invalid vault: %w", err)
	}
	return r.scope.write(OpVaultCreate, func(st *state) error {
		for _, v := range st.vaults {
			if v.OwnerID == vault.OwnerID && v.VaultType == vault.VaultType {
				return domain.ErrVaultExists
			}
		}
		st.vaults[vault.ID] = vault.Clone()
		return nil
	})
}

func (r *vaultRepository) Update(_ context.Context, vault *domain.Vault) error {
	if err := vault.Validate(); err != nil {
		return fmt.Errorf("invalid vault: %w", err)
	}
	return r.scope.write(OpVaultUpdate, func(st *state) error {
		if _, ok := st.vaults[vault.ID]; !ok {
			return domain.ErrVaultNotFound
		}
		st.vaults[vault.ID] = vault.Clone()
		return nil
	})
}

type transactionRepository struct {
	scope *scope
}

func (r *transactionRepository) Append(_ context.Context, txs ...*domain.Transaction) error {
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("invalid transaction: %w", err)
		}
	}
	return r.scope.write(OpTransactionAppend, func(st *state) error {
		for _, tx := range txs {
			entry := *tx
			st.transactions = append(st.transactions, &entry)
		}
		return nil
	})
}

func (r *transactionRepository) List(_ context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	var matched []*domain.Transaction
	err := r.scope.read(func(st *state) error {
		matched = filterTransactions(st.transactions, filter)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if filter.Offset >= len(matched) {
		return []*domain.Transaction{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (r *transactionRepository) Count(_ context.Context, filter domain.TransactionFilter) (int, error) {
	var count int
	err := r.scope.read(func(st *state) error {
		count = len(filterTransactions(st.transactions, filter))
		return nil
	})
	return count, err
}

// filterTransactions returns copies of the matching entries, newest first
func filterTransactions(all []*domain.Transaction, filter domain.TransactionFilter) []*domain.Transaction {
	out := make([]*domain.Transaction, 0)
	for i := len(all) - 1; i >= 0; i-- {
		tx := all[i]
		if tx.OwnerID != filter.OwnerID {
			continue
		}
		if filter.VaultID != nil && tx.VaultID != *filter.VaultID {
			continue
		}
		entry := *tx
		out = append(out, &entry)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

type goalRepository struct {
	scope *scope
}

func (r *goalRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.Goal, error) {
	var out *domain.Goal
	err := r.scope.read(func(st *state) error {
		g, ok := st.goals[id]
		if !ok {
			return domain.ErrGoalNotFound
		}
		goal := *g
		out = &goal
		return nil
	})
	return out, err
}

func (r *goalRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*domain.Goal, error) {
	return r.GetByID(ctx, id)
}

func (r *goalRepository) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Goal, error) {
	out := make([]*domain.Goal, 0)
	err := r.scope.read(func(st *state) error {
		for _, g := range st.goals {
			if g.OwnerID == ownerID {
				goal := *g
				out = append(out, &goal)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r *goalRepository) Create(_ context.Context, goal *domain.Goal) error {
	if err := goal.Validate(); err != nil {
		return fmt.Errorf("invalid goal: %w", err)
	}
	return r.scope.write(OpGoalCreate, func(st *state) error {
		g := *goal
		st.goals[goal.ID] = &g
		return nil
	})
}

func (r *goalRepository) Update(_ context.Context, goal *domain.Goal) error {
	if err := goal.Validate(); err != nil {
		return fmt.Errorf("invalid goal: %w", err)
	}
	return r.scope.write(OpGoalUpdate, func(st *state) error {
		if _, ok := st.goals[goal.ID]; !ok {
			return domain.ErrGoalNotFound
		}
		g := *goal
		st.goals[goal.ID] = &g
		return nil
	})
}

func (r *goalRepository) Delete(_ context.Context, id uuid.UUID) error {
	return r.scope.write(OpGoalDelete, func(st *state) error {
		if _, ok := st.goals[id]; !ok {
			return domain.ErrGoalNotFound
		}
		delete(st.goals, id)
		return nil
	})
}

type profileRepository struct {
	scope *scope
}

func (r *profileRepository) GetByID(_ context.Context, id uuid.UUID) (*domain.OwnerProfile, error) {
	var out *domain.OwnerProfile
	err := r.scope.read(func(st *state) error {
		p, ok := st.profiles[id]
		if !ok {
			return domain.ErrProfileNotFound
		}
		out = cloneProfile(p)
		return nil
	})
	return out, err
}

func (r *profileRepository) FindByPublicID(_ context.Context, publicID int) ([]*domain.OwnerProfile, error) {
	return r.find(func(p *domain.OwnerProfile) bool { return p.PublicID == publicID })
}

func (r *profileRepository) FindByEmail(_ context.Context, email string) ([]*domain.OwnerProfile, error) {
	return r.find(func(p *domain.OwnerProfile) bool { return strings.EqualFold(p.Email, email) })
}

func (r *profileRepository) find(match func(p *domain.OwnerProfile) bool) ([]*domain.OwnerProfile, error) {
	out := make([]*domain.OwnerProfile, 0)
	err := r.scope.read(func(st *state) error {
		for _, p := range st.profiles {
			if match(p) {
				out = append(out, cloneProfile(p))
			}
		}
		return nil
	})
	return out, err
}

func (r *profileRepository) SetPensionTargetYear(_ context.Context, ownerID uuid.UUID, year int) error {
	return r.scope.write(OpProfileTargetYear, func(st *state) error {
		p, ok := st.profiles[ownerID]
		if !ok {
			return domain.ErrProfileNotFound
		}
		y := year
		p.PensionTargetYear = &y
		return nil
	})
}

func vaultTypeOrder(t domain.VaultType) int {
	for i, vt := range domain.AllVaultTypes {
		if vt == t {
			return i
		}
	}
	return len(domain.AllVaultTypes)
}
