package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value.
// Amount is stored as BIGINT micros (10^-6) to avoid floating point errors.
type Money struct {
	Amount int64 // micros
}

// NewMoney creates a new Money instance from micros.
func NewMoney(amount int64) Money {
	return Money{Amount: amount}
}

// ToDecimal converts the int64 micros to a shopspring/decimal.Decimal.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(1_000_000))
}

// FromDecimal converts a decimal.Decimal to int64 micros.
func FromDecimal(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(1_000_000)).IntPart()
}

// ParseAmount parses a user-supplied amount string into micros.
func ParseAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d), nil
}

// MultiplyInt returns the amount scaled by an integer factor. Used for the
// payout doubling, which must be decimal-exact.
func (m Money) MultiplyInt(factor int64) Money {
	return Money{Amount: m.Amount * factor}
}

// Percent returns pct percent of the amount, rounding down to a micro.
func (m Money) Percent(pct int) Money {
	d := m.ToDecimal().Mul(decimal.NewFromInt(int64(pct))).Div(decimal.NewFromInt(100))
	return Money{Amount: FromDecimal(d)}
}

// String returns the amount formatted with two decimal places.
func (m Money) String() string {
	return m.ToDecimal().StringFixed(2)
}
