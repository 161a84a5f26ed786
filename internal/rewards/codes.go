package rewards

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// Redemption codes embed the dollar value they were minted for at a
	// fixed 100 points per dollar. This encoding rate is independent of the
	// purchase-earning rate.
	codePointsPerDollar = 100

	milestoneCodePrefix = "MILESTONEFREE_"
	welcomeCodePrefix   = "WELCOME_"
)

// Uppercase alphabet without the lookalikes I/L/O/U.
const suffixAlphabet = "ABCDEFGHJKMNPQRSTVWXYZ0123456789"

var rewardCodeRe = regexp.MustCompile(`^POINTS(\d+(?:\.\d+)?)CAD_[A-Z0-9]+$`)

// TierPointsFromCode extracts the point value encoded in a redemption code.
// Non-matching input reports ok=false; it means "not one of ours", never a
// fault.
func TierPointsFromCode(code string) (int, bool) {
	match := rewardCodeRe.FindStringSubmatch(strings.TrimSpace(code))
	if match == nil {
		return 0, false
	}
	amount, err := decimal.NewFromString(match[1])
	if err != nil {
		return 0, false
	}
	return int(amount.Mul(decimal.NewFromInt(codePointsPerDollar)).IntPart()), true
}

// IsRewardCode reports whether the code follows the redemption naming
// pattern.
func IsRewardCode(code string) bool {
	return rewardCodeRe.MatchString(strings.TrimSpace(code))
}

// NewReferralCode returns 6 hex characters from 3 random bytes. Collisions
// are possible (~1 in 16M per signup); the unique index on the customer row
// turns one into a retried generation.
func NewReferralCode() (string, error) {
	var raw [3]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("generating referral code: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}

// NewRewardCode mints a redemption code carrying the discount's dollar value.
func NewRewardCode(amount decimal.Decimal) (string, error) {
	suffix, err := codeSuffix(5)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("POINTS%sCAD_%s", amount.String(), suffix), nil
}

// NewMilestoneCode mints a free-product milestone code. It deliberately does
// not match the redemption pattern.
func NewMilestoneCode() (string, error) {
	suffix, err := codeSuffix(5)
	if err != nil {
		return "", err
	}
	return milestoneCodePrefix + suffix, nil
}

// NewWelcomeCode mints a welcome discount code for referred signups.
func NewWelcomeCode() (string, error) {
	suffix, err := codeSuffix(5)
	if err != nil {
		return "", err
	}
	return welcomeCodePrefix + suffix, nil
}

func codeSuffix(length int) (string, error) {
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating code suffix: %w", err)
	}
	out := make([]byte, length)
	for i, b := range raw {
		out[i] = suffixAlphabet[int(b)%len(suffixAlphabet)]
	}
	return string(out), nil
}
