package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GoalStatus represents the lifecycle state of a savings goal
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
)

// MaxGoalNameLength bounds goal names (in characters)
const MaxGoalNameLength = 120

// Goal represents a named savings target funded by allocations from the general vault
type Goal struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Name         string
	TargetAmount decimal.Decimal
	SavedAmount  decimal.Decimal // May exceed TargetAmount
	Status       GoalStatus      // completed <=> SavedAmount >= TargetAmount
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidateGoalFields checks a goal name and target amount supplied by the owner
func ValidateGoalFields(name string, target decimal.Decimal) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return NewValidationError("name", "please enter a goal name")
	}
	if utf8.RuneCountInString(trimmed) > MaxGoalNameLength {
		return NewValidationError("name", "goal name is too long")
	}
	if err := ValidateAmount("target_amount", target); err != nil {
		return NewValidationError("target_amount", "target amount must be greater than zero with at most two decimal places")
	}
	return nil
}

// Validate ensures the goal adheres to domain rules
func (g *Goal) Validate() error {
	if g.OwnerID == uuid.Nil {
		return errors.New("goal owner ID cannot be empty")
	}

	if err := ValidateGoalFields(g.Name, g.TargetAmount); err != nil {
		return err
	}

	if g.SavedAmount.IsNegative() {
		return errors.New("goal saved amount cannot be negative")
	}

	// Status must mirror the saved amount
	if g.Status != g.expectedStatus() {
		return errors.New("goal status does not match its saved amount")
	}

	return nil
}

// IsActive reports whether the goal still accepts allocations
func (g *Goal) IsActive() bool {
	return g.Status == GoalStatusActive
}

// Allocate adds amount to the saved total.
// Returns true when this allocation is the one that completed the goal.
func (g *Goal) Allocate(amount decimal.Decimal, at time.Time) (bool, error) {
	if !g.IsActive() {
		return false, NewValidationError("goal_id", "goal is already completed")
	}
	if err := ValidateAmount("amount", amount); err != nil {
		return false, err
	}

	g.SavedAmount = g.SavedAmount.Add(amount)
	g.Status = g.expectedStatus()
	g.UpdatedAt = at

	return g.Status == GoalStatusCompleted, nil
}

// Retarget renames the goal and moves its target, recomputing the status
func (g *Goal) Retarget(name string, target decimal.Decimal, at time.Time) error {
	if err := ValidateGoalFields(name, target); err != nil {
		return err
	}

	g.Name = strings.TrimSpace(name)
	g.TargetAmount = target
	g.Status = g.expectedStatus()
	g.UpdatedAt = at

	return nil
}

// Progress returns the saved percentage of the target, capped at 100
func (g *Goal) Progress() decimal.Decimal {
	if !g.TargetAmount.IsPositive() {
		return decimal.Zero
	}
	hundred := decimal.NewFromInt(100)
	pct := g.SavedAmount.Div(g.TargetAmount).Mul(hundred).Round(1)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

// Remaining returns how much is still needed to reach the target (never negative)
func (g *Goal) Remaining() decimal.Decimal {
	remaining := g.TargetAmount.Sub(g.SavedAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

func (g *Goal) expectedStatus() GoalStatus {
	if g.SavedAmount.GreaterThanOrEqual(g.TargetAmount) {
		return GoalStatusCompleted
	}
	return GoalStatusActive
}
