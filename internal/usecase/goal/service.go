package goal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/unitofwork"
	"github.com/shopspring/decimal"
)

// CreateGoalInput represents the input for creating a goal
type CreateGoalInput struct {
	OwnerID      uuid.UUID
	Name         string
	TargetAmount decimal.Decimal
}

// UpdateGoalInput represents the input for renaming or retargeting a goal
type UpdateGoalInput struct {
	OwnerID      uuid.UUID
	GoalID       uuid.UUID
	Name         string
	TargetAmount decimal.Decimal
}

// GoalView is a goal with its derived progress figures
type GoalView struct {
	*domain.Goal
	Progress  decimal.Decimal
	Remaining decimal.Decimal
}

// DeleteGoalResult reports what happened to the saved amount of a deleted goal
type DeleteGoalResult struct {
	Refunded    decimal.Decimal
	Vault       *domain.Vault
	Transaction *domain.Transaction // nil when nothing was saved
}

// GoalService manages the lifecycle of savings goals.
// Funding a goal is done by the transfer coordinator.
type GoalService struct {
	Store  domain.Store
	Events domain.EventPublisher
	Now    func() time.Time
}

// NewGoalService creates a new GoalService instance
func NewGoalService(store domain.Store, events domain.EventPublisher) *GoalService {
	return &GoalService{
		Store:  store,
		Events: events,
		Now:    time.Now,
	}
}

// CreateGoal opens a new active goal with nothing saved
func (s *GoalService) CreateGoal(ctx context.Context, input CreateGoalInput) (*GoalView, error) {
	if err := domain.ValidateGoalFields(input.Name, input.TargetAmount); err != nil {
		return nil, err
	}

	now := s.Now()
	goal := &domain.Goal{
		ID:           uuid.New(),
		OwnerID:      input.OwnerID,
		Name:         strings.TrimSpace(input.Name),
		TargetAmount: input.TargetAmount,
		SavedAmount:  decimal.Zero,
		Status:       domain.GoalStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Repositories().Goals.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	return newView(goal), nil
}

// UpdateGoal renames or retargets a goal. The status is recomputed, so raising
// the target above the saved amount re-activates a completed goal.
func (s *GoalService) UpdateGoal(ctx context.Context, input UpdateGoalInput) (*GoalView, error) {
	if err := domain.ValidateGoalFields(input.Name, input.TargetAmount); err != nil {
		return nil, err
	}

	var updated *domain.Goal
	err := unitofwork.Run(ctx, s.Store, "update_goal", func(ctx context.Context, repos domain.Repositories) error {
		goal, err := lockOwnedGoal(ctx, repos, input.OwnerID, input.GoalID)
		if err != nil {
			return err
		}
		if err := goal.Retarget(input.Name, input.TargetAmount, s.Now()); err != nil {
			return err
		}
		if err := repos.Goals.Update(ctx, goal); err != nil {
			return fmt.Errorf("failed to update goal: %w", err)
		}
		updated = goal
		return nil
	})
	if err != nil {
		return nil, err
	}

	return newView(updated), nil
}

// DeleteGoal removes an active goal
// Logic:
//  1. Lock the general vault, then the goal
//  2. Only active goals may be deleted
//  3. Any saved amount goes back to the general vault as a goal_refund
//  4. Delete the goal in the same unit of work
func (s *GoalService) DeleteGoal(ctx context.Context, ownerID, goalID uuid.UUID) (*DeleteGoalResult, error) {
	var result *DeleteGoalResult
	err := unitofwork.Run(ctx, s.Store, "delete_goal", func(ctx context.Context, repos domain.Repositories) error {
		now := s.Now()

		general, err := repos.Vaults.GetByOwnerAndType(ctx, ownerID, domain.VaultTypeGeneral)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.ErrVaultNotFound
			}
			return fmt.Errorf("failed to load general vault: %w", err)
		}
		vaults, err := unitofwork.LockOwnedVaults(ctx, repos, ownerID, general.ID)
		if err != nil {
			return err
		}
		vault := vaults[general.ID]

		goal, err := lockOwnedGoal(ctx, repos, ownerID, goalID)
		if err != nil {
			return err
		}
		if !goal.IsActive() {
			return domain.NewValidationError("goal_id", "completed goals cannot be deleted")
		}

		result = &DeleteGoalResult{Refunded: goal.SavedAmount, Vault: vault}

		if goal.SavedAmount.IsPositive() {
			vault.Balance = vault.Balance.Add(goal.SavedAmount)
			vault.UpdatedAt = now
			tx := domain.NewTransaction(vault, goal.SavedAmount, domain.TransactionKindGoalRefund, "Refund from deleted goal: "+goal.Name, now)

			if err := repos.Vaults.Update(ctx, vault); err != nil {
				return fmt.Errorf("failed to refund general vault: %w", err)
			}
			if err := repos.Transactions.Append(ctx, tx); err != nil {
				return fmt.Errorf("failed to record goal refund: %w", err)
			}
			result.Transaction = tx
		}

		if err := repos.Goals.Delete(ctx, goal.ID); err != nil {
			return fmt.Errorf("failed to delete goal: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := domain.NewLedgerEvent(domain.LedgerEventGoalDeleted, ownerID, result.Vault.ID, result.Refunded, s.Now())
	event.GoalID = &goalID
	unitofwork.Publish(ctx, s.Events, event)

	return result, nil
}

// ListGoals returns the owner's goals, newest first
func (s *GoalService) ListGoals(ctx context.Context, ownerID uuid.UUID) ([]*GoalView, error) {
	goals, err := s.Store.Repositories().Goals.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	views := make([]*GoalView, 0, len(goals))
	for _, g := range goals {
		views = append(views, newView(g))
	}
	return views, nil
}

func lockOwnedGoal(ctx context.Context, repos domain.Repositories, ownerID, goalID uuid.UUID) (*domain.Goal, error) {
	goal, err := repos.Goals.LockForUpdate(ctx, goalID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, fmt.Errorf("failed to lock goal: %w", err)
	}
	if goal.OwnerID != ownerID {
		return nil, domain.ErrGoalNotFound
	}
	return goal, nil
}

func newView(g *domain.Goal) *GoalView {
	return &GoalView{Goal: g, Progress: g.Progress(), Remaining: g.Remaining()}
}
