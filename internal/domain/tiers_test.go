package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommissionPercentageBoundaries(t *testing.T) {
	cases := []struct {
		count int
		pct   int
	}{
		{0, 0},
		{1, 3},
		{4, 3},
		{5, 8},
		{14, 8},
		{15, 12},
		{29, 12},
		{30, 20},
		{49, 20},
		{50, 25},
		{51, 25},
		{1000, 25},
	}

	for _, tc := range cases {
		require.Equal(t, tc.pct, CommissionPercentage(tc.count), "count=%d", tc.count)
	}
}

func TestCommissionPercentageTotalAndMonotonic(t *testing.T) {
	valid := map[int]bool{0: true, 3: true, 8: true, 12: true, 20: true, 25: true}

	prev := 0
	for n := 0; n <= 200; n++ {
		pct := CommissionPercentage(n)
		require.True(t, valid[pct], "count=%d produced %d", n, pct)
		require.GreaterOrEqual(t, pct, prev, "tier function must be non-decreasing at count=%d", n)
		prev = pct
	}
}

func TestTierForCount(t *testing.T) {
	require.Equal(t, TierStarter, TierForCount(0))
	require.Equal(t, TierBronze, TierForCount(1))
	require.Equal(t, TierSilver, TierForCount(5))
	require.Equal(t, TierGold, TierForCount(15))
	require.Equal(t, TierPlatinum, TierForCount(30))
	require.Equal(t, TierDiamond, TierForCount(50))
}

func TestNextTierRequirement(t *testing.T) {
	cases := []struct {
		count     int
		threshold int
		pct       int
		ok        bool
	}{
		{0, 5, 3, true},
		{4, 5, 3, true},
		{5, 15, 8, true},
		{14, 15, 8, true},
		{15, 30, 12, true},
		{30, 50, 20, true},
		{49, 50, 20, true},
		{50, 0, 25, false},
		{80, 0, 25, false},
	}

	for _, tc := range cases {
		threshold, pct, ok := NextTierRequirement(tc.count)
		require.Equal(t, tc.ok, ok, "count=%d", tc.count)
		require.Equal(t, tc.threshold, threshold, "count=%d", tc.count)
		require.Equal(t, tc.pct, pct, "count=%d", tc.count)
	}
}

func TestTierNamesAndBenefits(t *testing.T) {
	names := map[Tier]string{
		TierStarter:  "Starter",
		TierBronze:   "Bronze",
		TierSilver:   "Silver",
		TierGold:     "Gold",
		TierPlatinum: "Platinum",
		TierDiamond:  "Diamond",
	}
	for tier, name := range names {
		require.Equal(t, name, tier.Name())
		require.NotEmpty(t, tier.Benefit())
	}
	require.Equal(t, "Unknown", Tier(42).Name())
}

func TestProgressFor(t *testing.T) {
	p := ProgressFor(0)
	require.Equal(t, TierStarter, p.Tier)
	require.Equal(t, 5, p.NextRequired)
	require.Equal(t, 5, p.Remaining)
	require.InDelta(t, 0, p.ProgressPercentage, 0.001)
	require.False(t, p.IsMaxTier)

	p = ProgressFor(8)
	require.Equal(t, TierSilver, p.Tier)
	require.Equal(t, 8, p.Percentage)
	require.Equal(t, 15, p.NextRequired)
	require.Equal(t, 7, p.Remaining)
	require.InDelta(t, float64(8-5)/float64(15-5)*100, p.ProgressPercentage, 0.001)

	p = ProgressFor(50)
	require.True(t, p.IsMaxTier)
	require.Equal(t, 25, p.NextPercentage)
	require.Equal(t, 0, p.Remaining)
	require.InDelta(t, 100, p.ProgressPercentage, 0.001)
}
