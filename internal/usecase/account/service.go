package account

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

// AccountService provisions owner vaults and manages the pension target year
type AccountService struct {
	Store domain.Store
	Now   func() time.Time
}

// NewAccountService creates a new AccountService instance
func NewAccountService(store domain.Store) *AccountService {
	return &AccountService{
		Store: store,
		Now:   time.Now,
	}
}

// OpenAccount ensures the owner holds one vault of each type
// If a vault doesn't exist, it is created with a zero balance.
// Calling it again for the same owner changes nothing.
func (s *AccountService) OpenAccount(ctx context.Context, ownerID uuid.UUID) ([]*domain.Vault, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner_id", "owner ID cannot be empty")
	}

	var vaults []*domain.Vault
	created := 0
	err := unitofwork.Run(ctx, s.Store, "open_account", func(ctx context.Context, repos domain.Repositories) error {
		vaults = vaults[:0]
		created = 0

		if _, err := repos.Profiles.GetByID(ctx, ownerID); err != nil {
			if domain.IsNotFound(err) {
				return domain.ErrProfileNotFound
			}
			return fmt.Errorf("failed to load owner profile: %w", err)
		}

		now := s.Now()
		for _, vaultType := range domain.AllVaultTypes {
			existing, err := repos.Vaults.GetByOwnerAndType(ctx, ownerID, vaultType)
			if err == nil {
				vaults = append(vaults, existing)
				continue
			}
			if !domain.IsNotFound(err) {
				return fmt.Errorf("failed to load %s vault: %w", vaultType, err)
			}

			vault := &domain.Vault{
				ID:        uuid.New(),
				OwnerID:   ownerID,
				VaultType: vaultType,
				Balance:   decimal.Zero,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := vault.Validate(); err != nil {
				return err
			}
			if err := repos.Vaults.Create(ctx, vault); err != nil {
				return fmt.Errorf("failed to create %s vault: %w", vaultType, err)
			}
			vaults = append(vaults, vault)
			created++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created > 0 {
		logger.Info("account opened", logger.Fields{
			"owner_id":       ownerID.String(),
			"vaults_created": created,
		})
	}

	return vaults, nil
}

// SetPensionTargetYear records the owner's retirement year
// The year must fall between ten and eighty years from now. Re-setting is
// allowed and applies to future deposits and the bonus check.
func (s *AccountService) SetPensionTargetYear(ctx context.Context, ownerID uuid.UUID, year int) error {
	if err := vesting.ValidateTargetYear(year, s.Now()); err != nil {
		return err
	}

	if err := s.Store.Repositories().Profiles.SetPensionTargetYear(ctx, ownerID, year); err != nil {
		if domain.IsNotFound(err) {
			return domain.ErrProfileNotFound
		}
		return fmt.Errorf("failed to set pension target year: %w", err)
	}

	return nil
}
