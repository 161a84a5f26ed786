package rewards

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTierForPlacement(t *testing.T) {
	tiers := DefaultTiers()

	cases := []struct {
		name  string
		spend string
		want  string
		rate  int
	}{
		{"zero spend", "0", "Member", 1},
		{"below silver", "249.99", "Member", 1},
		{"silver boundary", "250", "Silver", 2},
		{"between tiers", "600.50", "Silver", 2},
		{"gold boundary", "1000", "Gold", 3},
		{"above gold", "150000", "Gold", 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spend := decimal.RequireFromString(tc.spend)
			tier := TierFor(tiers, spend)
			assert.Equal(t, tc.want, tier.Name)
			assert.Equal(t, tc.rate, tier.PointsPerDollar)
		})
	}
}

func TestTierForEmptyTable(t *testing.T) {
	tier := TierFor(nil, decimal.NewFromInt(5000))
	assert.Equal(t, "Member", tier.Name)
	assert.Equal(t, 1, tier.PointsPerDollar)
}

func TestTierForUnsortedTable(t *testing.T) {
	tiers := []Tier{
		{Name: "Gold", MinSpend: decimal.NewFromInt(1000), PointsPerDollar: 3},
		{Name: "Member", MinSpend: decimal.Zero, PointsPerDollar: 1},
		{Name: "Silver", MinSpend: decimal.NewFromInt(250), PointsPerDollar: 2},
	}

	assert.Equal(t, "Silver", TierFor(tiers, decimal.NewFromInt(400)).Name)
	assert.Equal(t, "Member", TierFor(tiers, decimal.NewFromInt(1)).Name)
}

func TestTierForBelowEveryThreshold(t *testing.T) {
	tiers := []Tier{
		{Name: "Silver", MinSpend: decimal.NewFromInt(250), PointsPerDollar: 2},
		{Name: "Gold", MinSpend: decimal.NewFromInt(1000), PointsPerDollar: 3},
	}

	// No zero-threshold tier configured: the lowest bracket is the fallback.
	assert.Equal(t, "Silver", TierFor(tiers, decimal.NewFromInt(10)).Name)
}
