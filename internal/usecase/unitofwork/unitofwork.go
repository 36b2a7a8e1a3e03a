// Package unitofwork runs use-case mutations inside one store transaction and
// publishes their ledger events once the transaction has committed.
package unitofwork

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/parthbtw/WealthNest-Hackathon/internal/logger"
)

// MaxAttempts is how many times a unit of work runs when the store reports a conflict
const MaxAttempts = 2

// Run executes fn in one unit of work. A ConflictError re-runs the whole unit
// once, so fn must re-read and re-validate everything it touches.
func Run(ctx context.Context, store domain.Store, operation string, fn func(ctx context.Context, repos domain.Repositories) error) error {
	var err error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		err = store.RunInTx(ctx, fn)
		if err == nil || !domain.IsConflict(err) {
			return err
		}
		logger.Warn("unit of work conflicted", logger.Fields{
			"operation": operation,
			"attempt":   attempt,
		})
	}
	return err
}

// Publish sends committed events. Failures are logged and never returned since
// the ledger change has already been made durable.
func Publish(ctx context.Context, publisher domain.EventPublisher, events ...domain.LedgerEvent) {
	if publisher == nil {
		return
	}
	for _, event := range events {
		if err := publisher.PublishLedgerEvent(ctx, event); err != nil {
			logger.Error("failed to publish ledger event", err, logger.Fields{
				"event_id": event.EventID.String(),
				"type":     string(event.Type),
				"owner_id": event.OwnerID.String(),
			})
		}
	}
}

// LockOwnedVaults locks the vaults for update and checks they all belong to ownerID.
// A missing vault and another owner's vault both report ErrVaultNotFound.
func LockOwnedVaults(ctx context.Context, repos domain.Repositories, ownerID uuid.UUID, ids ...uuid.UUID) (map[uuid.UUID]*domain.Vault, error) {
	vaults, err := repos.Vaults.LockForUpdate(ctx, ids...)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.ErrVaultNotFound
		}
		return nil, fmt.Errorf("failed to lock vaults: %w", err)
	}

	for _, id := range ids {
		vault, ok := vaults[id]
		if !ok || !vault.OwnedBy(ownerID) {
			return nil, domain.ErrVaultNotFound
		}
	}

	return vaults, nil
}

// TargetYear returns the owner's pension target year, or nil when the owner has
// no profile or has not chosen one
func TargetYear(ctx context.Context, repos domain.Repositories, ownerID uuid.UUID) (*int, error) {
	profile, err := repos.Profiles.GetByID(ctx, ownerID)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load owner profile: %w", err)
	}
	return profile.PensionTargetYear, nil
}
