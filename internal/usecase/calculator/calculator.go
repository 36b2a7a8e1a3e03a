// Package calculator derives fees and bonuses from vault snapshots.
// Every function is pure: no I/O, no clock, no mutation.
package calculator

import (
	"time"

	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// WithdrawalFeeRate is the 0.5% fee charged on general and emergency withdrawals
	WithdrawalFeeRate = decimal.RequireFromString("0.005")

	// ParkingIncentiveRate is the 0.25% one-off incentive on a parked emergency balance
	ParkingIncentiveRate = decimal.RequireFromString("0.0025")

	// VestingBonusRate is the 2% bonus paid with a fully vested pension withdrawal
	VestingBonusRate = decimal.RequireFromString("0.02")
)

const (
	// VestingPeriodYears is how long a pension must vest before the bonus applies
	VestingPeriodYears = 10

	// LockPeriodYears is the minimum hold before any pension withdrawal
	LockPeriodYears = 1
)

// WithdrawalFee returns round(amount * 0.5%, 2)
func WithdrawalFee(amount decimal.Decimal) decimal.Decimal {
	return domain.RoundMoney(amount.Mul(WithdrawalFeeRate))
}

// WithdrawalBreakdown splits a withdrawal into fee and total debit for the given vault type.
// Pension withdrawals carry no fee.
func WithdrawalBreakdown(vaultType domain.VaultType, amount decimal.Decimal) (fee, total decimal.Decimal) {
	if !vaultType.ChargesWithdrawalFee() {
		return decimal.Zero, amount
	}
	fee = WithdrawalFee(amount)
	return fee, amount.Add(fee)
}

// ParkingIncentive returns round(balance * 0.25%, 2).
// Returns zero for a non-positive balance.
func ParkingIncentive(balance decimal.Decimal) decimal.Decimal {
	if !balance.IsPositive() {
		return decimal.Zero
	}
	return domain.RoundMoney(balance.Mul(ParkingIncentiveRate))
}

// VestingComplete reports whether ten calendar years have passed since vesting started
func VestingComplete(vault *domain.Vault, now time.Time) bool {
	if vault.VestingStartDate == nil {
		return false
	}
	vestedAt := vault.VestingStartDate.AddDate(VestingPeriodYears, 0, 0)
	return !now.Before(vestedAt)
}

// TargetYearReached reports whether the owner's retirement year has arrived
func TargetYearReached(targetYear *int, now time.Time) bool {
	return targetYear != nil && *targetYear <= now.Year()
}

// VestingBonus returns round(balance * 2%, 2) when the pension has vested for ten
// years and the owner's target year has been reached; zero otherwise.
func VestingBonus(vault *domain.Vault, targetYear *int, now time.Time) decimal.Decimal {
	if !VestingComplete(vault, now) || !TargetYearReached(targetYear, now) {
		return decimal.Zero
	}
	return domain.RoundMoney(vault.Balance.Mul(VestingBonusRate))
}

// IsWithdrawalUnlocked reports whether the lock period has ended (or never started)
func IsWithdrawalUnlocked(vault *domain.Vault, now time.Time) bool {
	return vault.LockedUntil == nil || !now.Before(*vault.LockedUntil)
}

// LockedUntil returns the end of the lock period for a vesting clock started at start
func LockedUntil(start time.Time) time.Time {
	return start.AddDate(LockPeriodYears, 0, 0)
}
