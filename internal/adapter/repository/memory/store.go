// Package memory provides an in-process Store used by tests and the STORE=memory mode.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
)

// FaultFunc is called before every write made inside a unit of work.
// Returning an error aborts the write, and the unit of work with it.
type FaultFunc func(op string) error

// Write operations reported to a FaultFunc
const (
	OpVaultCreate       = "vaults.create"
	OpVaultUpdate       = "vaults.update"
	OpTransactionAppend = "transactions.append"
	OpGoalCreate        = "goals.create"
	OpGoalUpdate        = "goals.update"
	OpGoalDelete        = "goals.delete"
	OpProfileTargetYear = "profiles.set_pension_target_year"
)

type state struct {
	vaults       map[uuid.UUID]*domain.Vault
	transactions []*domain.Transaction
	goals        map[uuid.UUID]*domain.Goal
	profiles     map[uuid.UUID]*domain.OwnerProfile
}

func newState() *state {
	return &state{
		vaults:   make(map[uuid.UUID]*domain.Vault),
		goals:    make(map[uuid.UUID]*domain.Goal),
		profiles: make(map[uuid.UUID]*domain.OwnerProfile),
	}
}

// clone copies the maps and records. The transaction log is append-only so its
// entries are shared.
func (s *state) clone() *state {
	c := newState()
	for id, v := range s.vaults {
		c.vaults[id] = v.Clone()
	}
	for id, g := range s.goals {
		goal := *g
		c.goals[id] = &goal
	}
	for id, p := range s.profiles {
		c.profiles[id] = cloneProfile(p)
	}
	c.transactions = append(make([]*domain.Transaction, 0, len(s.transactions)), s.transactions...)
	return c
}

// Store keeps all state in memory. A unit of work runs on a private copy of the
// state under a store-wide lock and replaces the state only on success.
type Store struct {
	mu    sync.Mutex
	state *state
	fault FaultFunc
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{state: newState()}
}

// InjectFault installs f for subsequent units of work. Pass nil to remove it.
func (s *Store) InjectFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// AddProfile registers an owner profile, standing in for the external profile store
func (s *Store) AddProfile(profile *domain.OwnerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.profiles[profile.ID] = cloneProfile(profile)
}

// Repositories returns repositories that read and write the committed state directly
func (s *Store) Repositories() domain.Repositories {
	return s.repositories(&scope{store: s})
}

// RunInTx runs fn against a copy of the state. The copy becomes the committed
// state only if fn returns nil. Units of work are serialised, and fn must not
// use the store's non-transactional repositories or start another unit of work.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	if err := fn(ctx, s.repositories(&scope{tx: working, fault: s.fault})); err != nil {
		return err
	}

	s.state = working
	return nil
}

func (s *Store) repositories(sc *scope) domain.Repositories {
	return domain.Repositories{
		Vaults:       &vaultRepository{scope: sc},
		Transactions: &transactionRepository{scope: sc},
		Goals:        &goalRepository{scope: sc},
		Profiles:     &profileRepository{scope: sc},
	}
}

// scope gives a repository either the working copy of a unit of work or
// locked access to the committed state.
type scope struct {
	store *Store
	tx    *state
	fault FaultFunc
}

func (sc *scope) read(fn func(st *state) error) error {
	if sc.tx != nil {
		return fn(sc.tx)
	}
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	return fn(sc.store.state)
}

func (sc *scope) write(op string, fn func(st *state) error) error {
	if sc.tx != nil {
		if sc.fault != nil {
			if err := sc.fault(op); err != nil {
				return err
			}
		}
		return fn(sc.tx)
	}
	sc.store.mu.Lock()
	defer sc.store.mu.Unlock()
	return fn(sc.store.state)
}

func cloneProfile(p *domain.OwnerProfile) *domain.OwnerProfile {
	c := *p
	if p.PensionTargetYear != nil {
		year := *p.PensionTargetYear
		c.PensionTargetYear = &year
	}
	return &c
}
