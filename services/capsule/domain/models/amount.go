package models

import (
	"database/sql/driver"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative native-currency quantity with arbitrary precision.
// The zero value is 0.
type Amount struct {
	d decimal.Decimal
}

// maxAmountScale matches NUMERIC(38,18) and the 18 decimals of BNB and ETH.
const maxAmountScale = 18

// NewAmount parses a decimal string such as "0.11".
func NewAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("amount %q is not a decimal number", s)
	}
	return AmountFromDecimal(d)
}

// AmountFromDecimal wraps d after checking sign and precision.
func AmountFromDecimal(d decimal.Decimal) (Amount, error) {
	if d.IsNegative() {
		return Amount{}, fmt.Errorf("amount must not be negative")
	}
	if -d.Exponent() > maxAmountScale && !d.Equal(d.Truncate(maxAmountScale)) {
		return Amount{}, fmt.Errorf("amount must have at most %d decimal places", maxAmountScale)
	}
	return Amount{d: d}, nil
}

// MustAmount is NewAmount for constants and tests. It panics on bad input.
func MustAmount(s string) Amount {
	a, err := NewAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal exposes the underlying value for arithmetic outside this package.
func (a Amount) Decimal() decimal.Decimal { return a.d }

// String renders the amount without trailing zeros, e.g. "0.11".
func (a Amount) String() string { return a.d.String() }

// IsZero reports whether a == 0.
func (a Amount) IsZero() bool { return a.d.IsZero() }

// IsPositive reports whether a > 0.
func (a Amount) IsPositive() bool { return a.d.IsPositive() }

// Cmp returns -1, 0 or +1 as a is less than, equal to or greater than b.
func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

// Equal compares values, so "0.1" equals "0.10".
func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

// LessThan reports whether a < b.
func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

// Max returns the larger of a and b.
func (a Amount) Max(b Amount) Amount {
	if a.d.GreaterThanOrEqual(b.d) {
		return a
	}
	return b
}

// Mul scales a by factor, truncated to the storable precision.
func (a Amount) Mul(factor decimal.Decimal) Amount {
	return Amount{d: a.d.Mul(factor).Truncate(maxAmountScale)}
}

// MulCeil scales a by factor, rounded up to the storable precision.
func (a Amount) MulCeil(factor decimal.Decimal) Amount {
	return Amount{d: a.d.Mul(factor).RoundCeil(maxAmountScale)}
}

// Sub returns a - b. Callers guarantee b <= a.
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// BaseUnits converts to the chain's smallest unit (wei for 18 decimals).
func (a Amount) BaseUnits(decimals int32) *big.Int {
	return a.d.Shift(decimals).BigInt()
}

// MarshalJSON encodes the amount as a JSON string such as "0.11".
func (a Amount) MarshalJSON() ([]byte, error) {
	return a.d.MarshalJSON()
}

// UnmarshalJSON accepts a JSON string or number and applies the same checks
// as NewAmount.
func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	parsed, err := AmountFromDecimal(d)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer for NUMERIC columns.
func (a Amount) Value() (driver.Value, error) {
	return a.d.String(), nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (a *Amount) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan amount: %w", err)
	}
	a.d = d
	return nil
}
