package loyalty

import (
	"time"
)

type Tier string

const (
	TierBronze  Tier = "bronze"
	TierSilver  Tier = "silver"
	TierGold    Tier = "gold"
	TierDiamond Tier = "diamond"
)

// Tier thresholds by lifetime returns. Tiers only ever move up.
const (
	SilverThreshold  = 20
	GoldThreshold    = 50
	DiamondThreshold = 100
)

var tierRank = map[Tier]int{
	TierBronze:  0,
	TierSilver:  1,
	TierGold:    2,
	TierDiamond: 3,
}

// Account is an XS loyalty card account.
type Account struct {
	CardNumber         string
	Tier               Tier
	Points             int // never negative; deductions clamp at zero
	ConsecutiveReturns int
	TotalReturns       int
	Active             bool
	BlockReason        *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TierForReturns maps a lifetime-return count onto a tier.
func TierForReturns(totalReturns int) Tier {
	switch {
	case totalReturns >= DiamondThreshold:
		return TierDiamond
	case totalReturns >= GoldThreshold:
		return TierGold
	case totalReturns >= SilverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// HigherTier returns whichever of the two ranks higher; used to keep tier
// monotonically non-decreasing.
func HigherTier(a, b Tier) Tier {
	if tierRank[b] > tierRank[a] {
		return b
	}
	return a
}

// ValidTier reports whether t is one of the four known tiers.
func ValidTier(t Tier) bool {
	_, ok := tierRank[t]
	return ok
}
