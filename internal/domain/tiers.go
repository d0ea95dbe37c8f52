package domain

// Referral commission tiers. A referrer's tier is keyed by their count of
// active referrals: users they referred who currently hold an active
// investment. Thresholds are inclusive lower bounds, evaluated highest first.
//
// This table is the single source of truth for commission sizing; both the
// maturation scanner and the display layer go through it.

// Tier is one of the six commission bands.
type Tier int

const (
	TierStarter Tier = iota
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
	TierDiamond
)

// tierThresholds holds the inclusive lower bound of each tier above Starter.
var tierThresholds = [...]int{1, 5, 15, 30, 50}

// tierPercentages holds the commission percentage per tier, Starter first.
var tierPercentages = [...]int{0, 3, 8, 12, 20, 25}

// CommissionPercentage maps an active-referral count to a commission
// percentage. Total and monotonically non-decreasing in the count.
func CommissionPercentage(activeReferrals int) int {
	return tierPercentages[TierForCount(activeReferrals)]
}

// TierForCount maps an active-referral count to its tier.
func TierForCount(activeReferrals int) Tier {
	for i := len(tierThresholds) - 1; i >= 0; i-- {
		if activeReferrals >= tierThresholds[i] {
			return Tier(i + 1)
		}
	}
	return TierStarter
}

// Percentage returns the commission percentage of the tier.
func (t Tier) Percentage() int {
	if t < TierStarter || t > TierDiamond {
		return 0
	}
	return tierPercentages[t]
}

// NextTierRequirement returns the referral threshold a user should aim for
// next and the percentage paired with it. Once the 50-referral band is
// reached there is no next requirement: ok is false and pct is the maximum
// percentage. The first step reported is 5 referrals, not 1, so Bronze
// users are pointed at Silver rather than at the tier they already hold.
func NextTierRequirement(activeReferrals int) (threshold int, pct int, ok bool) {
	switch {
	case activeReferrals < 5:
		return 5, 3, true
	case activeReferrals < 15:
		return 15, 8, true
	case activeReferrals < 30:
		return 30, 12, true
	case activeReferrals < 50:
		return 50, 20, true
	default:
		return 0, tierPercentages[TierDiamond], false
	}
}

// Name returns the display name of the tier.
func (t Tier) Name() string {
	switch t {
	case TierStarter:
		return "Starter"
	case TierBronze:
		return "Bronze"
	case TierSilver:
		return "Silver"
	case TierGold:
		return "Gold"
	case TierPlatinum:
		return "Platinum"
	case TierDiamond:
		return "Diamond"
	default:
		return "Unknown"
	}
}

// Benefit returns the benefit description of the tier.
func (t Tier) Benefit() string {
	switch t {
	case TierStarter:
		return "Start referring friends to unlock rewards"
	case TierBronze:
		return "Earn 3% on all referral investments"
	case TierSilver:
		return "Earn 8% on all referral investments"
	case TierGold:
		return "Earn 12% on all referral investments"
	case TierPlatinum:
		return "Earn 20% on all referral investments"
	case TierDiamond:
		return "Maximum tier: Earn 25% on all referral investments"
	default:
		return ""
	}
}

// ReferralProgress describes how far a referrer is toward the next tier.
// Used for progress-bar display only; commission sizing never reads it.
type ReferralProgress struct {
	ActiveReferrals    int
	Tier               Tier
	Percentage         int
	NextRequired       int
	NextPercentage     int
	ProgressPercentage float64
	Remaining          int
	IsMaxTier          bool
}

// ProgressFor computes the display progress for an active-referral count.
func ProgressFor(activeReferrals int) ReferralProgress {
	tier := TierForCount(activeReferrals)
	p := ReferralProgress{
		ActiveReferrals: activeReferrals,
		Tier:            tier,
		Percentage:      tier.Percentage(),
	}

	next, nextPct, ok := NextTierRequirement(activeReferrals)
	if !ok {
		p.NextPercentage = nextPct
		p.ProgressPercentage = 100
		p.IsMaxTier = true
		return p
	}

	p.NextRequired = next
	p.NextPercentage = nextPct
	p.Remaining = next - activeReferrals

	if tier == TierStarter {
		p.ProgressPercentage = float64(activeReferrals) / float64(next) * 100
	} else {
		// Progress within the current band, measured from its lower bound.
		current := tierThresholds[tier-1]
		p.ProgressPercentage = float64(activeReferrals-current) / float64(next-current) * 100
	}
	if p.ProgressPercentage > 100 {
		p.ProgressPercentage = 100
	}
	return p
}
