// Package rewards computes point awards and overdue penalties for trolley
// returns. Everything here is a pure function over its inputs; storage and
// ledger writes happen in the callers.
package rewards

import (
	"fmt"
	"math"

	"trolley-monitor/internal/domain/loyalty"
)

const (
	basePoints        = 5
	quickReturnBonus  = 5
	quickReturnWindow = 60 // minutes
	streakBonus       = 10
	latePenalty       = 10
)

// Milestone bonuses trigger on exact streak values, not thresholds. A
// correction that skips over a value forfeits the bonus.
var milestoneBonuses = map[int]int{
	10: 20,
	25: 50,
	50: 100,
}

var tierMultipliers = map[loyalty.Tier]float64{
	loyalty.TierBronze:  1.0,
	loyalty.TierSilver:  1.5,
	loyalty.TierGold:    2.0,
	loyalty.TierDiamond: 2.5,
}

// Penalty brackets by hours overdue, ascending.
var penaltyBrackets = []struct {
	maxHours int
	points   int
}{
	{24, 20},
	{48, 50},
	{72, 100},
}

const penaltyBeyondBrackets = 200

type PointsInput struct {
	DurationMinutes    int
	Tier               loyalty.Tier
	ConsecutiveReturns int
	OnTime             bool
}

// BonusItem is one itemized term of a points calculation.
type BonusItem struct {
	Type        string
	Description string
	Points      int
}

// PointsBreakdown itemizes every contributing term so callers can build
// customer-facing messages from the parts, not just the total.
type PointsBreakdown struct {
	Base      int
	Items     []BonusItem
	Subtotal  int
	TierBonus int
	Total     int
}

// CalculatePoints computes the award for a completed return.
func CalculatePoints(in PointsInput) PointsBreakdown {
	breakdown := PointsBreakdown{Base: basePoints}

	if in.DurationMinutes <= quickReturnWindow {
		breakdown.Items = append(breakdown.Items, BonusItem{
			Type:        "quick_return",
			Description: fmt.Sprintf("Returned within %d minutes", quickReturnWindow),
			Points:      quickReturnBonus,
		})
	}

	if in.ConsecutiveReturns > 0 && in.ConsecutiveReturns%5 == 0 {
		breakdown.Items = append(breakdown.Items, BonusItem{
			Type:        "streak",
			Description: fmt.Sprintf("%d consecutive returns", in.ConsecutiveReturns),
			Points:      streakBonus,
		})
	}

	if bonus, ok := milestoneBonuses[in.ConsecutiveReturns]; ok {
		breakdown.Items = append(breakdown.Items, BonusItem{
			Type:        "milestone",
			Description: fmt.Sprintf("Milestone: %d consecutive returns", in.ConsecutiveReturns),
			Points:      bonus,
		})
	}

	if !in.OnTime {
		breakdown.Items = append(breakdown.Items, BonusItem{
			Type:        "late_return",
			Description: "Returned after the expected time",
			Points:      -latePenalty,
		})
	}

	breakdown.Subtotal = breakdown.Base
	for _, item := range breakdown.Items {
		breakdown.Subtotal += item.Points
	}

	multiplier := tierMultiplier(in.Tier)
	breakdown.TierBonus = int(math.Floor(float64(breakdown.Subtotal) * (multiplier - 1)))
	breakdown.Total = breakdown.Subtotal + breakdown.TierBonus

	return breakdown
}

type PenaltyInput struct {
	HoursOverdue int
	Tier         loyalty.Tier
}

type PenaltyBreakdown struct {
	Base           int
	TierAdjustment int
	Total          int
}

// CalculatePenalty computes the stepped overdue penalty. The tier multiplier
// increases the penalty for higher tiers: a deterrent for high-value
// customers, not a reward.
func CalculatePenalty(in PenaltyInput) PenaltyBreakdown {
	base := penaltyBeyondBrackets
	for _, bracket := range penaltyBrackets {
		if in.HoursOverdue <= bracket.maxHours {
			base = bracket.points
			break
		}
	}

	multiplier := tierMultiplier(in.Tier)
	total := int(math.Floor(float64(base) * multiplier))

	return PenaltyBreakdown{
		Base:           base,
		TierAdjustment: total - base,
		Total:          total,
	}
}

// TierProgress describes how far an account is from its next tier.
type TierProgress struct {
	NextTier        loyalty.Tier
	ReturnsNeeded   int
	ProgressPercent float64
	IsMaxTier       bool
}

// NextTierInfo reports the next tier and progress toward it by lifetime
// return count.
func NextTierInfo(tier loyalty.Tier, totalReturns int) TierProgress {
	var next loyalty.Tier
	var threshold int

	switch tier {
	case loyalty.TierBronze:
		next, threshold = loyalty.TierSilver, loyalty.SilverThreshold
	case loyalty.TierSilver:
		next, threshold = loyalty.TierGold, loyalty.GoldThreshold
	case loyalty.TierGold:
		next, threshold = loyalty.TierDiamond, loyalty.DiamondThreshold
	default:
		return TierProgress{NextTier: loyalty.TierDiamond, IsMaxTier: true, ProgressPercent: 100}
	}

	needed := threshold - totalReturns
	if needed < 0 {
		needed = 0
	}

	progress := float64(totalReturns) / float64(threshold) * 100
	if progress > 100 {
		progress = 100
	}

	return TierProgress{
		NextTier:        next,
		ReturnsNeeded:   needed,
		ProgressPercent: math.Round(progress*100) / 100,
	}
}

func tierMultiplier(tier loyalty.Tier) float64 {
	if m, ok := tierMultipliers[tier]; ok {
		return m
	}
	return 1.0
}
