package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/shopspring/decimal"
)

const goalColumns = `id, owner_id, name, target_amount, saved_amount, status, created_at, updated_at`

// goalRepository implements domain.GoalRepository
type goalRepository struct {
	db querier
}

// newGoalRepository creates a goal repository bound to a connection or transaction
func newGoalRepository(db querier) domain.GoalRepository {
	return &goalRepository{db: db}
}

// GetByID retrieves a goal by its ID
func (r *goalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Goal, error) {
	return r.get(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1`, id)
}

// LockForUpdate reads a goal and holds its row lock until the transaction ends
func (r *goalRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*domain.Goal, error) {
	return r.get(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1 FOR UPDATE`, id)
}

func (r *goalRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Goal, error) {
	goal, err := scanGoal(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, fmt.Errorf("failed to get goal by ID: %w", err)
	}
	return goal, nil
}

// ListByOwner retrieves all goals of an owner, newest first
func (r *goalRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	goals := make([]*domain.Goal, 0)
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}

	return goals, nil
}

// Create creates a new goal
func (r *goalRepository) Create(ctx context.Context, goal *domain.Goal) error {
	if err := goal.Validate(); err != nil {
		return fmt.Errorf("invalid goal: %w", err)
	}

	query := `
		INSERT INTO goals (` + goalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.OwnerID,
		goal.Name,
		goal.TargetAmount.StringFixed(domain.MoneyPlaces),
		goal.SavedAmount.StringFixed(domain.MoneyPlaces),
		string(goal.Status),
		goal.CreatedAt,
		goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}

	return nil
}

// Update persists name, target, saved amount, and status
func (r *goalRepository) Update(ctx context.Context, goal *domain.Goal) error {
	if err := goal.Validate(); err != nil {
		return fmt.Errorf("invalid goal: %w", err)
	}

	query := `
		UPDATE goals
		SET name = $2, target_amount = $3, saved_amount = $4, status = $5, updated_at = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.Name,
		goal.TargetAmount.StringFixed(domain.MoneyPlaces),
		goal.SavedAmount.StringFixed(domain.MoneyPlaces),
		string(goal.Status),
		goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}

	return requireOneRow(result, domain.ErrGoalNotFound)
}

// Delete removes a goal
func (r *goalRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}

	return requireOneRow(result, domain.ErrGoalNotFound)
}

func scanGoal(row rowScanner) (*domain.Goal, error) {
	var goal domain.Goal
	var targetStr, savedStr, status string

	err := row.Scan(
		&goal.ID,
		&goal.OwnerID,
		&goal.Name,
		&targetStr,
		&savedStr,
		&status,
		&goal.CreatedAt,
		&goal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	target, err := decimal.NewFromString(targetStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse target_amount: %w", err)
	}
	saved, err := decimal.NewFromString(savedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse saved_amount: %w", err)
	}

	goal.TargetAmount = target
	goal.SavedAmount = saved
	goal.Status = domain.GoalStatus(status)

	return &goal, nil
}
