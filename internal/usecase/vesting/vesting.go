// Package vesting tracks the pension vault lifecycle:
// Unfunded -> Locked -> Eligible -> (full withdrawal) -> Unfunded.
package vesting

import (
	"fmt"
	"time"

	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/parthbtw/WealthNest-Hackathon/internal/usecase/calculator"
	"github.com/shopspring/decimal"
)

// State is the lock state of a pension vault
type State string

const (
	StateUnfunded State = "unfunded"
	StateLocked   State = "locked"
	StateEligible State = "eligible"
)

const (
	// MinTargetYearOffset is the earliest allowed retirement year relative to now
	MinTargetYearOffset = 10
	// MaxTargetYearOffset is the latest allowed retirement year relative to now
	MaxTargetYearOffset = 80
)

// CurrentState derives the state from the vault's lock fields
func CurrentState(vault *domain.Vault, now time.Time) State {
	if vault.VestingStartDate == nil {
		return StateUnfunded
	}
	if !calculator.IsWithdrawalUnlocked(vault, now) {
		return StateLocked
	}
	return StateEligible
}

// OnDeposit applies the first-deposit rule. A deposit into an Unfunded pension
// vault starts the vesting clock and the one-year lock. Deposits in any other
// state leave the dates untouched. Returns true when the clock was started.
func OnDeposit(vault *domain.Vault, now time.Time) bool {
	if vault.VaultType != domain.VaultTypePension || vault.VestingStartDate != nil {
		return false
	}

	start := now
	lockedUntil := calculator.LockedUntil(start)
	vault.VestingStartDate = &start
	vault.LockedUntil = &lockedUntil
	return true
}

// CheckWithdrawable returns a LockedError while the vault is still Locked
func CheckWithdrawable(vault *domain.Vault, now time.Time) error {
	if calculator.IsWithdrawalUnlocked(vault, now) {
		return nil
	}
	return &domain.LockedError{
		UnlockAt: *vault.LockedUntil,
		Reason:   "pension funds are locked for 1 year from the first deposit",
	}
}

// Reset returns the vault to Unfunded after a full withdrawal.
// Prior vesting progress is forfeited.
func Reset(vault *domain.Vault) {
	vault.VestingStartDate = nil
	vault.LockedUntil = nil
}

// ValidateTargetYear checks currentYear+10 <= year <= currentYear+80
func ValidateTargetYear(year int, now time.Time) error {
	minYear := now.Year() + MinTargetYearOffset
	maxYear := now.Year() + MaxTargetYearOffset
	if year < minYear || year > maxYear {
		return domain.NewValidationError("target_year",
			fmt.Sprintf("retirement year must be between %d and %d", minYear, maxYear))
	}
	return nil
}

// RequireTargetYear rejects pension deposits from owners who have not chosen a retirement year
func RequireTargetYear(profile *domain.OwnerProfile) error {
	if profile == nil || profile.PensionTargetYear == nil {
		return domain.NewValidationError("target_year", "please set your retirement year before depositing to your Pension Nest")
	}
	return nil
}

// Status is a read-only snapshot of a pension vault for display
type Status struct {
	State            State
	VestingStartDate *time.Time
	UnlockAt         *time.Time
	VestedAt         *time.Time
	YearsVested      int
	TargetYear       *int
	BonusEligible    bool
	BonusReason      string
	ProjectedBonus   decimal.Decimal
}

// Snapshot reports the vault's state, vesting progress, and bonus eligibility
func Snapshot(vault *domain.Vault, targetYear *int, now time.Time) Status {
	s := Status{
		State:            CurrentState(vault, now),
		VestingStartDate: vault.VestingStartDate,
		UnlockAt:         vault.LockedUntil,
		TargetYear:       targetYear,
		ProjectedBonus:   decimal.Zero,
	}

	if vault.VestingStartDate == nil {
		s.BonusReason = "no pension deposits yet"
		return s
	}

	vestedAt := vault.VestingStartDate.AddDate(calculator.VestingPeriodYears, 0, 0)
	s.VestedAt = &vestedAt
	s.YearsVested = fullYearsBetween(*vault.VestingStartDate, now)

	switch {
	case !calculator.VestingComplete(vault, now):
		s.BonusReason = fmt.Sprintf("bonus available from %s", vestedAt.UTC().Format("2006-01-02"))
	case targetYear == nil:
		s.BonusReason = "retirement year not set"
	case !calculator.TargetYearReached(targetYear, now):
		s.BonusReason = fmt.Sprintf("bonus available from your retirement year %d", *targetYear)
	default:
		s.BonusEligible = true
		s.BonusReason = "10-year vesting bonus (2%) applies to a full withdrawal"
		s.ProjectedBonus = calculator.VestingBonus(vault, targetYear, now)
	}

	return s
}

// fullYearsBetween counts completed calendar years from start to now
func fullYearsBetween(start, now time.Time) int {
	if now.Before(start) {
		return 0
	}
	years := now.Year() - start.Year()
	if now.Before(start.AddDate(years, 0, 0)) {
		years--
	}
	return years
}
