package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind classifies a transaction log entry
type TransactionKind string

const (
	TransactionKindDeposit           TransactionKind = "deposit"
	TransactionKindWithdrawal        TransactionKind = "withdrawal"
	TransactionKindWithdrawalFee     TransactionKind = "withdrawal_fee"
	TransactionKindPensionWithdrawal TransactionKind = "pension_withdrawal"
	TransactionKindVestingBonus      TransactionKind = "vesting_bonus"
	TransactionKindParkingIncentive  TransactionKind = "parking_incentive"
	TransactionKindTransferIn        TransactionKind = "transfer_in"
	TransactionKindTransferOut       TransactionKind = "transfer_out"
	TransactionKindGoalAllocation    TransactionKind = "goal_allocation"
	TransactionKindGoalRefund        TransactionKind = "goal_refund"
)

// AffectsBalance reports whether entries of this kind are part of the vault balance.
// The vesting bonus is paid to the owner on top of the vault balance, so it is
// recorded against the vault for audit but never moves the balance.
func (k TransactionKind) AffectsBalance() bool {
	return k != TransactionKindVestingBonus
}

// IsCredit reports whether entries of this kind must carry a positive amount
func (k TransactionKind) IsCredit() bool {
	switch k {
	case TransactionKindDeposit, TransactionKindParkingIncentive, TransactionKindTransferIn, TransactionKindGoalRefund:
		return true
	default:
		return false
	}
}

func (k TransactionKind) valid() bool {
	switch k {
	case TransactionKindDeposit, TransactionKindWithdrawal, TransactionKindWithdrawalFee,
		TransactionKindPensionWithdrawal, TransactionKindVestingBonus, TransactionKindParkingIncentive,
		TransactionKindTransferIn, TransactionKindTransferOut, TransactionKindGoalAllocation,
		TransactionKindGoalRefund:
		return true
	default:
		return false
	}
}

// Transaction represents one atomic, signed change recorded against a vault.
// Transactions are append-only: never updated or deleted.
type Transaction struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	VaultID     uuid.UUID
	Amount      decimal.Decimal // SIGNED: credits positive, debits negative
	Kind        TransactionKind
	Description string
	CreatedAt   time.Time
}

// NewTransaction builds a transaction log entry for a vault
func NewTransaction(vault *Vault, amount decimal.Decimal, kind TransactionKind, description string, at time.Time) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		OwnerID:     vault.OwnerID,
		VaultID:     vault.ID,
		Amount:      amount,
		Kind:        kind,
		Description: strings.TrimSpace(description),
		CreatedAt:   at,
	}
}

// Validate ensures the transaction adheres to domain rules
func (t *Transaction) Validate() error {
	if t.VaultID == uuid.Nil || t.OwnerID == uuid.Nil {
		return errors.New("transaction must reference a vault and its owner")
	}

	if !t.Kind.valid() {
		return errors.New("transaction kind is invalid")
	}

	if t.Amount.IsZero() {
		return errors.New("transaction amount cannot be zero")
	}

	if !t.Amount.Equal(RoundMoney(t.Amount)) {
		return errors.New("transaction amount must have at most two decimal places")
	}

	// Sign must agree with the kind
	if t.Kind.IsCredit() != t.Amount.IsPositive() {
		return errors.New("transaction amount sign does not match its kind")
	}

	if t.Description == "" {
		return errors.New("transaction description cannot be empty")
	}

	return nil
}

// ReplayBalance sums the balance-affecting amounts of the given transactions
func ReplayBalance(transactions []*Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		if tx.Kind.AffectsBalance() {
			total = total.Add(tx.Amount)
		}
	}
	return total
}
