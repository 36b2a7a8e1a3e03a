package transfer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/parthbtw/WealthNest-Hackathon/internal/logger"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/unitofwork"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/vesting"
	"github.com/shopspring/decimal"
)

// TransferToUserInput represents the input for a peer transfer.
// Exactly one of RecipientPublicID or RecipientEmail must be set.
type TransferToUserInput struct {
	SenderID          uuid.UUID
	SourceVaultID     uuid.UUID
	RecipientPublicID string
	RecipientEmail    string
	Amount            decimal.Decimal
}

// TransferToUserResult is the committed outcome of a peer transfer
type TransferToUserResult struct {
	SourceVault   *domain.Vault
	RecipientName string
	Amount        decimal.Decimal
	Transaction   *domain.Transaction
}

// OwnVaultTransferInput represents the input for a move between an owner's vaults
type OwnVaultTransferInput struct {
	OwnerID       uuid.UUID
	SourceVaultID uuid.UUID
	DestVaultType domain.VaultType
	Amount        decimal.Decimal
}

// OwnVaultTransferResult is the committed outcome of an inter-vault transfer
type OwnVaultTransferResult struct {
	SourceVault  *domain.Vault
	DestVault    *domain.Vault
	Amount       decimal.Decimal
	LockStarted  bool
	Transactions []*domain.Transaction
}

// AllocateInput represents the input for funding a goal
type AllocateInput struct {
	OwnerID uuid.UUID
	GoalID  uuid.UUID
	Amount  decimal.Decimal
}

// AllocateResult is the committed outcome of a goal allocation
type AllocateResult struct {
	Goal          *domain.Goal
	Vault         *domain.Vault
	Transaction   *domain.Transaction
	GoalCompleted bool
	Message       string
}

// TransferService moves money between vaults and into goals, each move in one unit of work
type TransferService struct {
	Store  domain.Store
	Events domain.EventPublisher
	Now    func() time.Time
}

// NewTransferService creates a new TransferService instance
func NewTransferService(store domain.Store, events domain.EventPublisher) *TransferService {
	return &TransferService{
		Store:  store,
		Events: events,
		Now:    time.Now,
	}
}

// TransferToUser moves money from the sender's general vault to the recipient's general vault
// Logic:
//  1. Validate the recipient reference and amount before touching the store
//  2. Resolve the recipient to exactly one other owner
//  3. Lock both vaults in one ordered statement
//  4. Debit the sender, credit the recipient, one transaction per side
func (s *TransferService) TransferToUser(ctx context.Context, input TransferToUserInput) (*TransferToUserResult, error) {
	ref, err := domain.ParseRecipientRef(input.RecipientPublicID, input.RecipientEmail)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount("amount", input.Amount); err != nil {
		return nil, err
	}

	repos := s.Store.Repositories()
	recipient, err := s.resolveRecipient(ctx, repos, ref)
	if err != nil {
		return nil, err
	}
	if recipient.ID == input.SenderID {
		return nil, domain.NewValidationError("recipient", "you cannot transfer money to yourself")
	}

	senderName := "a WealthNest user"
	if sender, err := repos.Profiles.GetByID(ctx, input.SenderID); err == nil && sender.DisplayName != "" {
		senderName = sender.DisplayName
	} else if err != nil && !domain.IsNotFound(err) {
		return nil, fmt.Errorf("failed to load sender profile: %w", err)
	}

	destVault, err := repos.Vaults.GetByOwnerAndType(ctx, recipient.ID, domain.VaultTypeGeneral)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrRecipientNotFound
		}
		return nil, fmt.Errorf("failed to load recipient vault: %w", err)
	}
	destID := destVault.ID

	var result *TransferToUserResult
	err = unitofwork.Run(ctx, s.Store, "transfer_to_user", func(ctx context.Context, repos domain.Repositories) error {
		now := s.Now()

		vaults, err := repos.Vaults.LockForUpdate(ctx, input.SourceVaultID, destID)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.ErrVaultNotFound
			}
			return fmt.Errorf("failed to lock vaults: %w", err)
		}
		source, dest := vaults[input.SourceVaultID], vaults[destID]
		if source == nil || !source.OwnedBy(input.SenderID) {
			return domain.ErrVaultNotFound
		}
		if dest == nil || !dest.OwnedBy(recipient.ID) || dest.VaultType != domain.VaultTypeGeneral {
			return domain.ErrRecipientNotFound
		}
		if err := requireGeneralSource(source); err != nil {
			return err
		}
		if err := requireFunds(source, input.Amount); err != nil {
			return err
		}

		source.Balance = source.Balance.Sub(input.Amount)
		source.UpdatedAt = now
		dest.Balance = dest.Balance.Add(input.Amount)
		dest.UpdatedAt = now

		out := domain.NewTransaction(source, input.Amount.Neg(), domain.TransactionKindTransferOut, "Transfer to "+recipient.DisplayName, now)
		in := domain.NewTransaction(dest, input.Amount, domain.TransactionKindTransferIn, "Transfer from "+senderName, now)

		if err := repos.Vaults.Update(ctx, source); err != nil {
			return fmt.Errorf("failed to debit source vault: %w", err)
		}
		if err := repos.Vaults.Update(ctx, dest); err != nil {
			return fmt.Errorf("failed to credit recipient vault: %w", err)
		}
		if err := repos.Transactions.Append(ctx, out, in); err != nil {
			return fmt.Errorf("failed to record transfer: %w", err)
		}

		result = &TransferToUserResult{
			SourceVault:   source,
			RecipientName: recipient.DisplayName,
			Amount:        input.Amount,
			Transaction:   out,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("peer transfer applied", logger.Fields{
		"sender_id":    input.SenderID.String(),
		"recipient_id": recipient.ID.String(),
		"amount":       input.Amount.StringFixed(2),
	})

	sent := domain.NewLedgerEvent(domain.LedgerEventPeerTransfer, input.SenderID, input.SourceVaultID, input.Amount.Neg(), result.Transaction.CreatedAt)
	sent.CounterVault = &destID
	received := domain.NewLedgerEvent(domain.LedgerEventPeerTransfer, recipient.ID, destID, input.Amount, result.Transaction.CreatedAt)
	sourceID := input.SourceVaultID
	received.CounterVault = &sourceID
	unitofwork.Publish(ctx, s.Events, sent, received)

	return result, nil
}

func (s *TransferService) resolveRecipient(ctx context.Context, repos domain.Repositories, ref domain.RecipientRef) (*domain.OwnerProfile, error) {
	var (
		matches []*domain.OwnerProfile
		err     error
	)
	if ref.ByPublicID() {
		matches, err = repos.Profiles.FindByPublicID(ctx, ref.PublicID)
	} else {
		matches, err = repos.Profiles.FindByEmail(ctx, ref.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up recipient: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, domain.ErrRecipientNotFound
	case 1:
		return matches[0], nil
	default:
		return nil, domain.NewValidationError("recipient", "recipient is ambiguous, please use their WealthNest ID")
	}
}

// TransferBetweenOwnVaults moves money from the owner's general vault into the
// emergency or pension vault
// Logic:
//  1. Validate destination type and 0 < amount <= 1,000,000
//  2. Lock source and destination together
//  3. Pension destinations require the retirement year and start the lock on first funding
//  4. Debit source, credit destination, one transaction per side
func (s *TransferService) TransferBetweenOwnVaults(ctx context.Context, input OwnVaultTransferInput) (*OwnVaultTransferResult, error) {
	if _, err := domain.ParseVaultType(string(input.DestVaultType)); err != nil {
		return nil, err
	}
	if input.DestVaultType == domain.VaultTypeGeneral {
		return nil, domain.NewValidationError("dest_vault_type", "destination must be the emergency vault or the pension nest")
	}
	if err := domain.ValidateDepositAmount("amount", input.Amount); err != nil {
		return nil, err
	}

	var result *OwnVaultTransferResult
	err := unitofwork.Run(ctx, s.Store, "transfer_between_own_vaults", func(ctx context.Context, repos domain.Repositories) error {
		now := s.Now()

		destVault, err := repos.Vaults.GetByOwnerAndType(ctx, input.OwnerID, input.DestVaultType)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.ErrVaultNotFound
			}
			return fmt.Errorf("failed to load destination vault: %w", err)
		}

		vaults, err := unitofwork.LockOwnedVaults(ctx, repos, input.OwnerID, input.SourceVaultID, destVault.ID)
		if err != nil {
			return err
		}
		source, dest := vaults[input.SourceVaultID], vaults[destVault.ID]

		if err := requireGeneralSource(source); err != nil {
			return err
		}
		if err := requireFunds(source, input.Amount); err != nil {
			return err
		}

		if dest.VaultType == domain.VaultTypePension {
			profile, err := repos.Profiles.GetByID(ctx, input.OwnerID)
			if err != nil && !domain.IsNotFound(err) {
				return fmt.Errorf("failed to load owner profile: %w", err)
			}
			if err := vesting.RequireTargetYear(profile); err != nil {
				return err
			}
		}

		source.Balance = source.Balance.Sub(input.Amount)
		source.UpdatedAt = now
		dest.Balance = dest.Balance.Add(input.Amount)
		lockStarted := vesting.OnDeposit(dest, now)
		dest.UpdatedAt = now

		txs := []*domain.Transaction{
			domain.NewTransaction(source, input.Amount.Neg(), domain.TransactionKindTransferOut, "Transfer to "+dest.VaultType.DisplayName(), now),
			domain.NewTransaction(dest, input.Amount, domain.TransactionKindTransferIn, "Transfer from "+source.VaultType.DisplayName(), now),
		}

		if err := repos.Vaults.Update(ctx, source); err != nil {
			return fmt.Errorf("failed to debit source vault: %w", err)
		}
		if err := repos.Vaults.Update(ctx, dest); err != nil {
			return fmt.Errorf("failed to credit destination vault: %w", err)
		}
		if err := repos.Transactions.Append(ctx, txs...); err != nil {
			return fmt.Errorf("failed to record transfer: %w", err)
		}

		result = &OwnVaultTransferResult{
			SourceVault:  source,
			DestVault:    dest,
			Amount:       input.Amount,
			LockStarted:  lockStarted,
			Transactions: txs,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := domain.NewLedgerEvent(domain.LedgerEventVaultTransfer, input.OwnerID, input.SourceVaultID, input.Amount, result.Transactions[0].CreatedAt)
	destID := result.DestVault.ID
	event.CounterVault = &destID
	unitofwork.Publish(ctx, s.Events, event)

	return result, nil
}

// AllocateToGoal moves money from the owner's general vault into an active goal
// Logic:
//  1. Validate amount > 0
//  2. Lock the general vault, then the goal
//  3. The goal must be active and the vault must cover the amount
//  4. Debit the vault (goal_allocation), add to the goal, flip it to completed
//     the first time saved >= target
func (s *TransferService) AllocateToGoal(ctx context.Context, input AllocateInput) (*AllocateResult, error) {
	if err := domain.ValidateAmount("amount", input.Amount); err != nil {
		return nil, err
	}

	var result *AllocateResult
	err := unitofwork.Run(ctx, s.Store, "allocate_to_goal", func(ctx context.Context, repos domain.Repositories) error {
		now := s.Now()

		general, err := repos.Vaults.GetByOwnerAndType(ctx, input.OwnerID, domain.VaultTypeGeneral)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.ErrVaultNotFound
			}
			return fmt.Errorf("failed to load general vault: %w", err)
		}
		vaults, err := unitofwork.LockOwnedVaults(ctx, repos, input.OwnerID, general.ID)
		if err != nil {
			return err
		}
		vault := vaults[general.ID]

		goal, err := repos.Goals.LockForUpdate(ctx, input.GoalID)
		if err != nil {
			if domain.IsNotFound(err) {
				return domain.ErrGoalNotFound
			}
			return fmt.Errorf("failed to lock goal: %w", err)
		}
		if goal.OwnerID != input.OwnerID {
			return domain.ErrGoalNotFound
		}
		if !goal.IsActive() {
			return domain.NewValidationError("goal_id", "goal is already completed")
		}
		if err := requireFunds(vault, input.Amount); err != nil {
			return err
		}

		completed, err := goal.Allocate(input.Amount, now)
		if err != nil {
			return err
		}

		vault.Balance = vault.Balance.Sub(input.Amount)
		vault.UpdatedAt = now
		tx := domain.NewTransaction(vault, input.Amount.Neg(), domain.TransactionKindGoalAllocation, "Allocation to goal: "+goal.Name, now)

		if err := repos.Vaults.Update(ctx, vault); err != nil {
			return fmt.Errorf("failed to debit general vault: %w", err)
		}
		if err := repos.Goals.Update(ctx, goal); err != nil {
			return fmt.Errorf("failed to update goal: %w", err)
		}
		if err := repos.Transactions.Append(ctx, tx); err != nil {
			return fmt.Errorf("failed to record goal allocation: %w", err)
		}

		result = &AllocateResult{
			Goal:          goal,
			Vault:         vault,
			Transaction:   tx,
			GoalCompleted: completed,
			Message:       allocationMessage(goal, input.Amount, completed),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	goalID := input.GoalID
	events := []domain.LedgerEvent{
		domain.NewLedgerEvent(domain.LedgerEventGoalAllocation, input.OwnerID, result.Vault.ID, input.Amount, result.Transaction.CreatedAt),
	}
	events[0].GoalID = &goalID
	if result.GoalCompleted {
		completed := domain.NewLedgerEvent(domain.LedgerEventGoalCompleted, input.OwnerID, result.Vault.ID, result.Goal.SavedAmount, result.Transaction.CreatedAt)
		completed.GoalID = &goalID
		events = append(events, completed)
	}
	unitofwork.Publish(ctx, s.Events, events...)

	return result, nil
}

func allocationMessage(goal *domain.Goal, amount decimal.Decimal, completed bool) string {
	if completed {
		return fmt.Sprintf("Congratulations! You reached your goal %q.", goal.Name)
	}
	return fmt.Sprintf("Allocated $%s to %q. $%s to go.", amount.StringFixed(2), goal.Name, goal.Remaining().StringFixed(2))
}

func requireGeneralSource(source *domain.Vault) error {
	if source.VaultType != domain.VaultTypeGeneral {
		return domain.NewValidationError("source_vault_id", "transfers must come from your Micro-Savings Vault")
	}
	return nil
}

func requireFunds(vault *domain.Vault, amount decimal.Decimal) error {
	if amount.GreaterThan(vault.Balance) {
		return &domain.InsufficientFundsError{
			Requested: amount,
			Fee:       decimal.Zero,
			Total:     amount,
			Available: vault.Balance,
		}
	}
	return nil
}
