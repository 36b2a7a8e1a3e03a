package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places every stored amount carries
const MoneyPlaces = 2

// MaxDepositAmount is the largest single deposit or inter-vault transfer accepted
var MaxDepositAmount = decimal.NewFromInt(1_000_000)

// RoundMoney rounds an amount to cents, half away from zero
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

// ParseMoney parses a decimal string such as "50.00" into an amount.
// The field name is used in the returned ValidationError.
func ParseMoney(field, raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, NewValidationError(field, "amount is required")
	}

	amount, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, NewValidationError(field, "invalid amount format")
	}

	return amount, nil
}

// ValidateAmount checks that amount is positive and has at most two decimal places
func ValidateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError(field, "amount must be greater than zero")
	}
	if !amount.Equal(RoundMoney(amount)) {
		return NewValidationError(field, "amount must have at most two decimal places")
	}
	return nil
}

// ValidateDepositAmount checks the deposit bounds: 0 < amount <= 1,000,000
func ValidateDepositAmount(field string, amount decimal.Decimal) error {
	if err := ValidateAmount(field, amount); err != nil {
		return err
	}
	if amount.GreaterThan(MaxDepositAmount) {
		return NewValidationError(field, "maximum deposit amount is 1,000,000.00")
	}
	return nil
}
