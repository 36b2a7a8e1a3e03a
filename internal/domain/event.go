package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEventType names a committed balance-changing operation
type LedgerEventType string

const (
	LedgerEventDeposit           LedgerEventType = "deposit"
	LedgerEventWithdrawal        LedgerEventType = "withdrawal"
	LedgerEventPensionWithdrawal LedgerEventType = "pension_withdrawal"
	LedgerEventParkingIncentive  LedgerEventType = "parking_incentive"
	LedgerEventPeerTransfer      LedgerEventType = "peer_transfer"
	LedgerEventVaultTransfer     LedgerEventType = "vault_transfer"
	LedgerEventGoalAllocation    LedgerEventType = "goal_allocation"
	LedgerEventGoalCompleted     LedgerEventType = "goal_completed"
	LedgerEventGoalDeleted       LedgerEventType = "goal_deleted"
)

// LedgerEvent is published after a unit of work commits
type LedgerEvent struct {
	EventID      uuid.UUID        `json:"event_id"`
	Type         LedgerEventType  `json:"type"`
	OwnerID      uuid.UUID        `json:"owner_id"`
	VaultID      uuid.UUID        `json:"vault_id"`
	CounterVault *uuid.UUID       `json:"counter_vault_id,omitempty"`
	GoalID       *uuid.UUID       `json:"goal_id,omitempty"`
	Amount       decimal.Decimal  `json:"amount"`
	Fee          *decimal.Decimal `json:"fee,omitempty"`
	Bonus        *decimal.Decimal `json:"bonus,omitempty"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// NewLedgerEvent creates an event with a fresh ID
func NewLedgerEvent(eventType LedgerEventType, ownerID, vaultID uuid.UUID, amount decimal.Decimal, at time.Time) LedgerEvent {
	return LedgerEvent{
		EventID:    uuid.New(),
		Type:       eventType,
		OwnerID:    ownerID,
		VaultID:    vaultID,
		Amount:     amount,
		OccurredAt: at,
	}
}

// EventPublisher delivers ledger events to downstream consumers.
// Publishing happens after commit and never holds store locks.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event LedgerEvent) error
}

// IncentiveCooldown guards the parking incentive against repeated claims
type IncentiveCooldown interface {
	// Claim reserves the incentive for the vault for one cooldown period.
	// Returns ok=false and the time left when the vault already claimed it.
	Claim(ctx context.Context, vaultID uuid.UUID) (ok bool, retryAfter time.Duration, err error)

	// Release gives a claim back, used when the incentive could not be applied
	Release(ctx context.Context, vaultID uuid.UUID) error
}
