package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/parthbtw/WealthNest-Hackathon/internal/logger"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/calculator"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/unitofwork"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/vesting"
	"github.com/shopspring/decimal"
)

// DepositMethod names the channel a deposit arrived through
type DepositMethod string

const (
	DepositMethodDirect           DepositMethod = ""
	DepositMethodExchangePartners DepositMethod = "exchange_partners"
	DepositMethodWalletTopUp      DepositMethod = "wallet_topup"
)

// MaxDepositNoteLength bounds the optional free-text note on a deposit
const MaxDepositNoteLength = 140

// ParseDepositMethod converts a string into a DepositMethod
func ParseDepositMethod(raw string) (DepositMethod, error) {
	switch method := DepositMethod(strings.TrimSpace(raw)); method {
	case DepositMethodDirect, DepositMethodExchangePartners, DepositMethodWalletTopUp:
		return method, nil
	default:
		return "", domain.NewValidationError("method", "deposit method must be exchange_partners or wallet_topup")
	}
}

func (m DepositMethod) suffix() string {
	switch m {
	case DepositMethodExchangePartners:
		return " via Money Exchange Partners"
	case DepositMethodWalletTopUp:
		return " via WealthNest Wallet Top Up"
	default:
		return ""
	}
}

// DepositInput represents the input for a deposit
type DepositInput struct {
	OwnerID uuid.UUID
	VaultID uuid.UUID
	Amount  decimal.Decimal
	Method  DepositMethod
	Note    string
}

// DepositResult is the committed outcome of a deposit
type DepositResult struct {
	Vault       *domain.Vault
	Transaction *domain.Transaction
	LockStarted bool
}

// WithdrawInput represents the input for a fee-bearing withdrawal
type WithdrawInput struct {
	OwnerID uuid.UUID
	VaultID uuid.UUID
	Amount  decimal.Decimal
}

// WithdrawResult is the committed outcome of a withdrawal
type WithdrawResult struct {
	Vault        *domain.Vault
	Amount       decimal.Decimal
	Fee          decimal.Decimal
	TotalDebit   decimal.Decimal
	Transactions []*domain.Transaction
}

// PensionWithdrawalResult is the committed outcome of a full pension withdrawal
type PensionWithdrawalResult struct {
	Vault        *domain.Vault
	Withdrawn    decimal.Decimal
	Bonus        decimal.Decimal
	Payout       decimal.Decimal
	Transactions []*domain.Transaction
}

// IncentiveResult is the committed outcome of a parking incentive
type IncentiveResult struct {
	Vault       *domain.Vault
	Incentive   decimal.Decimal
	Transaction *domain.Transaction
	Message     string
}

// LedgerService applies single-vault balance changes
type LedgerService struct {
	Store    domain.Store
	Events   domain.EventPublisher
	Cooldown domain.IncentiveCooldown // nil disables the incentive cooldown
	Now      func() time.Time
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(
	store domain.Store,
	events domain.EventPublisher,
	cooldown domain.IncentiveCooldown,
) *LedgerService {
	return &LedgerService{
		Store:    store,
		Events:   events,
		Cooldown: cooldown,
		Now:      time.Now,
	}
}

// Deposit credits a vault
// Logic:
//  1. Validate 0 < amount <= 1,000,000 with at most two decimal places
//  2. Lock the vault and check ownership
//  3. Pension vaults require the owner's retirement year
//  4. balance += amount, and a first pension deposit starts the one-year lock
//  5. Append one +amount deposit transaction in the same unit of work
func (s *LedgerService) Deposit(ctx context.Context, input DepositInput) (*DepositResult, error) {
	if err := domain.ValidateDepositAmount("amount", input.Amount); err != nil {
		return nil, err
	}
	if _, err := ParseDepositMethod(string(input.Method)); err != nil {
		return nil, err
	}
	note := strings.TrimSpace(input.Note)
	if len([]rune(note)) > MaxDepositNoteLength {
		return nil, domain.NewValidationError("note", "deposit note is too long")
	}

	var result *DepositResult
	err := unitofwork.Run(ctx, s.Store, "deposit", func(ctx context.Context, repos domain.Repositories) error {
		now := s.Now()

		vaults, err := unitofwork.LockOwnedVaults(ctx, repos, input.OwnerID, input.VaultID)
		if err != nil {
			return err
		}
		vault := vaults[input.VaultID]

		if vault.VaultType == domain.VaultTypePension {
			profile, err := repos.Profiles.GetByID(ctx, input.OwnerID)
			if err != nil && !domain.IsNotFound(err) {
				return fmt.Errorf("failed to load owner profile: %w", err)
			}
			if err := vesting.RequireTargetYear(profile); err != nil {
				return err
			}
		}

		vault.Balance = vault.Balance.Add(input.Amount)
		lockStarted := vesting.OnDeposit(vault, now)
		vault.UpdatedAt = now

		description := "Deposit to " + vault.VaultType.DisplayName() + input.Method.suffix()
		if note != "" {
			description += " - " + note
		}
		tx := domain.NewTransaction(vault, input.Amount, domain.TransactionKindDeposit, description, now)

		if err := repos.Vaults.Update(ctx, vault); err != nil {
			return fmt.Errorf("failed to update vault: %w", err)
		}
		if err := repos.Transactions.Append(ctx, tx); err != nil {
			return fmt.Errorf("failed to record deposit: %w", err)
		}

		result = &DepositResult{Vault: vault, Transaction: tx, LockStarted: lockStarted}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("deposit applied", logger.Fields{
		"owner_id": input.OwnerID.String(),
		"vault_id": input.VaultID.String(),
		"amount":   input.Amount.StringFixed(2),
	})
	unitofwork.Publish(ctx, s.Events, domain.NewLedgerEvent(domain.LedgerEventDeposit, input.OwnerID, input.VaultID, input.Amount, result.Transaction.CreatedAt))

	return result, nil
}

// Withdraw debits a general or emergency vault, charging the 0.5% fee
// Logic:
//  1. Validate amount > 0 with at most two decimal places
//  2. Lock the vault, check ownership, reject pension vaults
//  3. fee = round(amount * 0.5%, 2), total = amount + fee must fit the balance
//  4. balance -= total; append -amount (withdrawal) and -fee (withdrawal_fee).
//     A fee that rounds to zero produces no fee transaction.
func (s *LedgerService) Withdraw(ctx context.Context, input WithdrawInput) (*WithdrawResult, error) {
	if err := domain.ValidateAmount("amount", input.Amount); err != nil {
		return nil, err
	}

	var result *WithdrawResult
	err := unitofwork.Run(ctx, s.Store, "withdraw", func(ctx context.Context, repos domain.Repositories) error {
		now := s.Now()

		vaults, err := unitofwork.LockOwnedVaults(ctx, repos, input.OwnerID, input.VaultID)
		if err != nil {
			return err
		}
		vault := vaults[input.VaultID]

		if !vault.VaultType.AllowsPartialWithdrawal() {
			return domain.NewValidationError("vault_id", "pension nest only supports a full withdrawal of the balance")
		}

		fee, total := calculator.WithdrawalBreakdown(vault.VaultType, input.Amount)
		if total.GreaterThan(vault.Balance) {
			return &domain.InsufficientFundsError{
				Requested: input.Amount,
				Fee:       fee,
				Total:     total,
				Available: vault.Balance,
			}
		}

		name := vault.VaultType.DisplayName()
		txs := []*domain.Transaction{
			domain.NewTransaction(vault, input.Amount.Neg(), domain.TransactionKindWithdrawal, "Withdrawal from "+name, now),
		}
		if fee.IsPositive() {
			txs = append(txs, domain.NewTransaction(vault, fee.Neg(), domain.TransactionKindWithdrawalFee, name+" withdrawal fee", now))
		}

		vault.Balance = vault.Balance.Sub(total)
		vault.UpdatedAt = now

		if err := repos.Vaults.Update(ctx, vault); err != nil {
			return fmt.Errorf("failed to update vault: %w", err)
		}
		if err := repos.Transactions.Append(ctx, txs...); err != nil {
			return fmt.Errorf("failed to record withdrawal: %w", err)
		}

		result = &WithdrawResult{
			Vault:        vault,
			Amount:       input.Amount,
			Fee:          fee,
			TotalDebit:   total,
			Transactions: txs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := domain.NewLedgerEvent(domain.LedgerEventWithdrawal, input.OwnerID, input.VaultID, input.Amount, s.Now())
	event.Fee = &result.Fee
	unitofwork.Publish(ctx, s.Events, event)

	return result, nil
}

// WithdrawPensionFull pays out the whole pension balance plus any vesting bonus
// Logic:
//  1. Lock the vault, check ownership and that it is a funded pension vault
//  2. Reject while the one-year lock is running (LockedError with the unlock date)
//  3. bonus = 2% of the balance once vested for 10 years and the retirement year is reached
//  4. Record -balance (pension_withdrawal) and -bonus (vesting_bonus, audit only)
//  5. balance = 0 and the vault returns to Unfunded
func (s *LedgerService) WithdrawPensionFull(ctx context.Context, ownerID, vaultID uuid.UUID) (*PensionWithdrawalResult, error) {
	var result *PensionWithdrawalResult
	err := unitofwork.Run(ctx, s.Store, "withdraw_pension_full", func(ctx context.Context, repos domain.Repositories) error {
		now := s.Now()

		vaults, err := unitofwork.LockOwnedVaults(ctx, repos, ownerID, vaultID)
		if err != nil {
			return err
		}
		vault := vaults[vaultID]

		if vault.VaultType != domain.VaultTypePension {
			return domain.NewValidationError("vault_id", "full withdrawal is only available for the pension nest")
		}
		if !vault.Balance.IsPositive() {
			return domain.NewValidationError("vault_id", "pension nest has no funds to withdraw")
		}
		if err := vesting.CheckWithdrawable(vault, now); err != nil {
			return err
		}

		targetYear, err := unitofwork.TargetYear(ctx, repos, ownerID)
		if err != nil {
			return err
		}

		withdrawn := vault.Balance
		bonus := calculator.VestingBonus(vault, targetYear, now)

		txs := []*domain.Transaction{
			domain.NewTransaction(vault, withdrawn.Neg(), domain.TransactionKindPensionWithdrawal, "Pension Nest withdrawal", now),
		}
		if bonus.IsPositive() {
			txs = append(txs, domain.NewTransaction(vault, bonus.Neg(), domain.TransactionKindVestingBonus, "Pension Nest 10-year vesting bonus (2%)", now))
		}

		vault.Balance = decimal.Zero
		vesting.Reset(vault)
		vault.UpdatedAt = now

		if err := repos.Vaults.Update(ctx, vault); err != nil {
			return fmt.Errorf("failed to update vault: %w", err)
		}
		if err := repos.Transactions.Append(ctx, txs...); err != nil {
			return fmt.Errorf("failed to record pension withdrawal: %w", err)
		}

		result = &PensionWithdrawalResult{
			Vault:        vault,
			Withdrawn:    withdrawn,
			Bonus:        bonus,
			Payout:       withdrawn.Add(bonus),
			Transactions: txs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := domain.NewLedgerEvent(domain.LedgerEventPensionWithdrawal, ownerID, vaultID, result.Withdrawn, s.Now())
	if result.Bonus.IsPositive() {
		event.Bonus = &result.Bonus
	}
	unitofwork.Publish(ctx, s.Events, event)

	return result, nil
}

// ApplyParkingIncentive credits 0.25% of a parked emergency balance
// Logic:
//  1. Check the vault belongs to the owner and is the emergency vault
//  2. Claim the per-vault cooldown before opening the unit of work
//  3. Lock the vault, re-check, balance += round(balance * 0.25%, 2)
//  4. Append one parking_incentive credit. A failed unit releases the cooldown claim.
func (s *LedgerService) ApplyParkingIncentive(ctx context.Context, ownerID, vaultID uuid.UUID) (*IncentiveResult, error) {
	vault, err := s.Store.Repositories().Vaults.GetByID(ctx, vaultID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrVaultNotFound
		}
		return nil, fmt.Errorf("failed to load vault: %w", err)
	}
	if !vault.OwnedBy(ownerID) {
		return nil, domain.ErrVaultNotFound
	}
	if err := checkIncentiveEligible(vault); err != nil {
		return nil, err
	}

	if s.Cooldown != nil {
		ok, retryAfter, err := s.Cooldown.Claim(ctx, vaultID)
		if err != nil {
			return nil, fmt.Errorf("failed to claim incentive cooldown: %w", err)
		}
		if !ok {
			return nil, domain.NewValidationError("vault_id",
				fmt.Sprintf("parking incentive already applied, try again in %s", retryAfter.Round(time.Minute)))
		}
	}

	var result *IncentiveResult
	err = unitofwork.Run(ctx, s.Store, "apply_parking_incentive", func(ctx context.Context, repos domain.Repositories) error {
		now := s.Now()

		vaults, err := unitofwork.LockOwnedVaults(ctx, repos, ownerID, vaultID)
		if err != nil {
			return err
		}
		vault := vaults[vaultID]
		if err := checkIncentiveEligible(vault); err != nil {
			return err
		}

		incentive := calculator.ParkingIncentive(vault.Balance)
		if !incentive.IsPositive() {
			return domain.NewValidationError("vault_id", "balance is too small to earn a parking incentive")
		}

		vault.Balance = vault.Balance.Add(incentive)
		vault.UpdatedAt = now
		tx := domain.NewTransaction(vault, incentive, domain.TransactionKindParkingIncentive, "Emergency Vault parking incentive (0.25%)", now)

		if err := repos.Vaults.Update(ctx, vault); err != nil {
			return fmt.Errorf("failed to update vault: %w", err)
		}
		if err := repos.Transactions.Append(ctx, tx); err != nil {
			return fmt.Errorf("failed to record parking incentive: %w", err)
		}

		result = &IncentiveResult{
			Vault:       vault,
			Incentive:   incentive,
			Transaction: tx,
			Message:     fmt.Sprintf("Parking incentive of $%s applied to your Emergency Vault.", incentive.StringFixed(2)),
		}
		return nil
	})
	if err != nil {
		s.releaseCooldown(ctx, vaultID)
		return nil, err
	}

	unitofwork.Publish(ctx, s.Events, domain.NewLedgerEvent(domain.LedgerEventParkingIncentive, ownerID, vaultID, result.Incentive, result.Transaction.CreatedAt))

	return result, nil
}

func checkIncentiveEligible(vault *domain.Vault) error {
	if !vault.VaultType.EarnsParkingIncentive() {
		return domain.NewValidationError("vault_id", "parking incentive is only available for the emergency vault")
	}
	if !vault.Balance.IsPositive() {
		return domain.NewValidationError("vault_id", "emergency vault has no balance to earn an incentive")
	}
	return nil
}

func (s *LedgerService) releaseCooldown(ctx context.Context, vaultID uuid.UUID) {
	if s.Cooldown == nil {
		return
	}
	if err := s.Cooldown.Release(context.WithoutCancel(ctx), vaultID); err != nil {
		logger.Error("failed to release incentive cooldown", err, logger.Fields{"vault_id": vaultID.String()})
	}
}
