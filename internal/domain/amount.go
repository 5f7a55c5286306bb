package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount represents a monetary value in minor units (cents) with currency.
// Storing minor units as int64 avoids the floating point precision issues
// a decimal-string representation would need a library for on every operation.
type Amount struct {
	Units        int64  // Value in minor units, e.g. 10050 for "100.50"
	CurrencyCode string // ISO 4217 currency code (e.g. "USD")
}

// NewAmount creates an Amount from minor units and a currency code.
func NewAmount(units int64, currencyCode string) Amount {
	return Amount{Units: units, CurrencyCode: currencyCode}
}

// ParseAmount parses a decimal string (e.g. "100.50") into an Amount.
// The value must be a finite positive number with at most 2 decimal places.
func ParseAmount(value, currencyCode string) (Amount, error) {
	if err := ValidateCurrencyCode(currencyCode); err != nil {
		return Amount{}, err
	}

	if value == "" {
		return Amount{}, fmt.Errorf("%w: amount value is required", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q is not a number", ErrInvalidAmount, value)
	}

	if d.Sign() <= 0 {
		return Amount{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidAmount)
	}

	// Shift into minor units; anything left after the shift means more than
	// 2 decimal places were supplied.
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return Amount{}, fmt.Errorf("%w: at most 2 decimal places allowed", ErrInvalidAmount)
	}

	big := shifted.BigInt()
	if !big.IsInt64() {
		return Amount{}, fmt.Errorf("%w: value out of range", ErrInvalidAmount)
	}

	return Amount{Units: big.Int64(), CurrencyCode: currencyCode}, nil
}

// Value formats the amount as a decimal string with 2 decimal places.
func (a Amount) Value() string {
	return decimal.New(a.Units, -2).StringFixed(2)
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a.Units > 0
}

// SameCurrency reports whether both amounts share a currency code.
func (a Amount) SameCurrency(b Amount) bool {
	return a.CurrencyCode == b.CurrencyCode
}

// Add returns a + b. Both amounts must share a currency.
func (a Amount) Add(b Amount) (Amount, error) {
	if !a.SameCurrency(b) {
		return Amount{}, ErrCurrencyMismatch
	}
	sum := a.Units + b.Units
	if (b.Units > 0 && sum < a.Units) || (b.Units < 0 && sum > a.Units) {
		return Amount{}, fmt.Errorf("%w: balance overflow", ErrInvalidAmount)
	}
	return Amount{Units: sum, CurrencyCode: a.CurrencyCode}, nil
}

// Sub returns a - b. Both amounts must share a currency.
func (a Amount) Sub(b Amount) (Amount, error) {
	if !a.SameCurrency(b) {
		return Amount{}, ErrCurrencyMismatch
	}
	return Amount{Units: a.Units - b.Units, CurrencyCode: a.CurrencyCode}, nil
}

// Cmp compares two amounts of the same currency.
// Returns negative if a < b, zero if equal, positive if a > b.
func (a Amount) Cmp(b Amount) (int, error) {
	if !a.SameCurrency(b) {
		return 0, ErrCurrencyMismatch
	}
	switch {
	case a.Units < b.Units:
		return -1, nil
	case a.Units > b.Units:
		return 1, nil
	}
	return 0, nil
}

// ValidateCurrencyCode validates that a currency code follows ISO 4217 format.
func ValidateCurrencyCode(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("%w: currency code must be 3 characters (ISO 4217)", ErrInvalidAmount)
	}
	for _, c := range code {
		if c < 'A' || c > 'Z' {
			return fmt.Errorf("%w: currency code must contain only uppercase letters", ErrInvalidAmount)
		}
	}
	return nil
}
