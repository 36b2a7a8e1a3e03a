package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VaultType represents the kind of vault an owner holds
type VaultType string

const (
	VaultTypeGeneral   VaultType = "general"
	VaultTypeEmergency VaultType = "emergency"
	VaultTypePension   VaultType = "pension"
)

// AllVaultTypes lists every vault type, in the order vaults are opened for a new owner
var AllVaultTypes = []VaultType{VaultTypeGeneral, VaultTypeEmergency, VaultTypePension}

// ParseVaultType converts a string into a VaultType
func ParseVaultType(raw string) (VaultType, error) {
	switch VaultType(raw) {
	case VaultTypeGeneral, VaultTypeEmergency, VaultTypePension:
		return VaultType(raw), nil
	default:
		return "", NewValidationError("vault_type", "vault type must be general, emergency, or pension")
	}
}

// DisplayName returns the name used in transaction descriptions
func (t VaultType) DisplayName() string {
	switch t {
	case VaultTypeGeneral:
		return "Micro-Savings Vault"
	case VaultTypeEmergency:
		return "Emergency Vault"
	case VaultTypePension:
		return "Pension Nest"
	default:
		return "Vault"
	}
}

// ChargesWithdrawalFee reports whether withdrawals from this vault type carry the 0.5% fee
func (t VaultType) ChargesWithdrawalFee() bool {
	switch t {
	case VaultTypeGeneral, VaultTypeEmergency:
		return true
	case VaultTypePension:
		return false
	default:
		return false
	}
}

// AllowsPartialWithdrawal reports whether any amount up to the balance may be withdrawn.
// Pension vaults only pay out in full.
func (t VaultType) AllowsPartialWithdrawal() bool {
	switch t {
	case VaultTypeGeneral, VaultTypeEmergency:
		return true
	case VaultTypePension:
		return false
	default:
		return false
	}
}

// EarnsParkingIncentive reports whether the parking incentive can be applied to this vault type
func (t VaultType) EarnsParkingIncentive() bool {
	switch t {
	case VaultTypeEmergency:
		return true
	case VaultTypeGeneral, VaultTypePension:
		return false
	default:
		return false
	}
}

// Vault represents a named balance bucket owned by one user
type Vault struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	VaultType        VaultType
	Balance          decimal.Decimal
	VestingStartDate *time.Time // Pension only. Set by the first deposit since Unfunded.
	LockedUntil      *time.Time // Pension only. VestingStartDate + 1 year.
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Validate ensures the vault adheres to domain rules
func (v *Vault) Validate() error {
	if v.OwnerID == uuid.Nil {
		return errors.New("vault owner ID cannot be empty")
	}

	if _, err := ParseVaultType(string(v.VaultType)); err != nil {
		return err
	}

	if v.Balance.IsNegative() {
		return errors.New("vault balance cannot be negative")
	}

	// Lock fields only exist on pension vaults and always travel together
	if v.VaultType != VaultTypePension && (v.VestingStartDate != nil || v.LockedUntil != nil) {
		return errors.New("only pension vaults can carry vesting or lock dates")
	}
	if (v.VestingStartDate == nil) != (v.LockedUntil == nil) {
		return errors.New("vesting start date and locked until must be set together")
	}

	return nil
}

// OwnedBy reports whether the vault belongs to ownerID
func (v *Vault) OwnedBy(ownerID uuid.UUID) bool {
	return v.OwnerID == ownerID
}

// Clone returns a deep copy of the vault
func (v *Vault) Clone() *Vault {
	c := *v
	if v.VestingStartDate != nil {
		t := *v.VestingStartDate
		c.VestingStartDate = &t
	}
	if v.LockedUntil != nil {
		t := *v.LockedUntil
		c.LockedUntil = &t
	}
	return &c
}
