package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	micros, err := ParseAmount("500")
	require.NoError(t, err)
	require.Equal(t, int64(500_000_000), micros)

	micros, err = ParseAmount("100.50")
	require.NoError(t, err)
	require.Equal(t, int64(100_500_000), micros)

	_, err = ParseAmount("not-a-number")
	require.Error(t, err)
}

func TestDoublingIsExact(t *testing.T) {
	for _, amount := range []int64{100_000_000, 500_000_000, 99_999_999_999, 1} {
		doubled := NewMoney(amount).MultiplyInt(2)
		require.Equal(t, amount*2, doubled.Amount)
	}
}

func TestPercent(t *testing.T) {
	// 8% of 1000.00 must be exactly 80.00.
	m := NewMoney(1_000_000_000).Percent(8)
	require.Equal(t, int64(80_000_000), m.Amount)
	require.Equal(t, "80.00", m.String())

	// 3% of 100.00 is exactly 3.00.
	m = NewMoney(100_000_000).Percent(3)
	require.Equal(t, int64(3_000_000), m.Amount)

	require.Equal(t, int64(0), NewMoney(500_000_000).Percent(0).Amount)
}

func TestDecimalRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("12345.678901")
	require.Equal(t, int64(12_345_678_901), FromDecimal(d))
	require.True(t, NewMoney(12_345_678_901).ToDecimal().Equal(d))
}
