package rewards

import (
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierPointsFromCode(t *testing.T) {
	cases := []struct {
		name   string
		code   string
		points int
		ok     bool
	}{
		{"whole dollars", "POINTS5CAD_AB3F9", 500, true},
		{"fractional dollars", "POINTS12.5CAD_AB3F9", 1250, true},
		{"two decimals", "POINTS7.25CAD_XYZ12", 725, true},
		{"surrounding whitespace", "  POINTS5CAD_AB3F9  ", 500, true},
		{"milestone code", "MILESTONEFREE_AB3F9", 0, false},
		{"welcome code", "WELCOME_AB3F9", 0, false},
		{"missing suffix", "POINTS5CAD_", 0, false},
		{"lowercase suffix", "POINTS5CAD_ab3f9", 0, false},
		{"foreign code", "SUMMER2024", 0, false},
		{"empty", "", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			points, ok := TierPointsFromCode(tc.code)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.points, points)
		})
	}
}

func TestNewRewardCodeRoundTrips(t *testing.T) {
	for _, amount := range []string{"5", "12.5", "7.25"} {
		code, err := NewRewardCode(decimal.RequireFromString(amount))
		require.NoError(t, err)
		assert.True(t, IsRewardCode(code), "generated code %q should parse", code)

		points, ok := TierPointsFromCode(code)
		require.True(t, ok)
		expected := decimal.RequireFromString(amount).Mul(decimal.NewFromInt(100))
		assert.Equal(t, int(expected.IntPart()), points)
	}
}

func TestNewReferralCodeShape(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]{6}$`)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := NewReferralCode()
		require.NoError(t, err)
		assert.True(t, hexRe.MatchString(code), "unexpected referral code %q", code)
		seen[code] = true
	}
	// 50 draws from a 16M space should not all collapse.
	assert.Greater(t, len(seen), 1)
}

func TestMilestoneAndWelcomeCodesNeverParse(t *testing.T) {
	milestone, err := NewMilestoneCode()
	require.NoError(t, err)
	welcome, err := NewWelcomeCode()
	require.NoError(t, err)

	_, ok := TierPointsFromCode(milestone)
	assert.False(t, ok)
	_, ok = TierPointsFromCode(welcome)
	assert.False(t, ok)
}
