package rewards

import "github.com/shopspring/decimal"

// Tier is a points-per-dollar bracket keyed by cumulative customer spend.
type Tier struct {
	Name            string
	MinSpend        decimal.Decimal
	PointsPerDollar int
}

var baseTier = Tier{Name: "Member", MinSpend: decimal.Zero, PointsPerDollar: 1}

// DefaultTiers returns the stock loyalty ladder.
func DefaultTiers() []Tier {
	return []Tier{
		baseTier,
		{Name: "Silver", MinSpend: decimal.NewFromInt(250), PointsPerDollar: 2},
		{Name: "Gold", MinSpend: decimal.NewFromInt(1000), PointsPerDollar: 3},
	}
}

// TierFor returns the highest tier whose threshold is at or below the
// cumulative spend. Spend below every threshold, or an empty table, yields
// the base tier. Total: no failure mode.
func TierFor(tiers []Tier, spend decimal.Decimal) Tier {
	if len(tiers) == 0 {
		return baseTier
	}

	lowest := tiers[0]
	matched := false
	var best Tier
	for _, tier := range tiers {
		if tier.MinSpend.LessThan(lowest.MinSpend) {
			lowest = tier
		}
		if tier.MinSpend.GreaterThan(spend) {
			continue
		}
		if !matched || tier.MinSpend.GreaterThan(best.MinSpend) {
			best = tier
			matched = true
		}
	}
	if !matched {
		return lowest
	}
	return best
}
