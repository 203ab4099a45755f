package signal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/phenomenon0/latesignal/pkg/football/match"
)

const (
	BetMarketOverUnder = "OVER_UNDER"
	BetSelectionOver   = "OVER"
)

// sizingTier maps a minimum confidence to the price floor and stake.
type sizingTier struct {
	minConfidence float64
	minOdds       decimal.Decimal
	stakePct      decimal.Decimal
}

var sizingTiers = []sizingTier{
	{80, decimal.RequireFromString("1.50"), decimal.RequireFromString("3.0")},
	{70, decimal.RequireFromString("1.60"), decimal.RequireFromString("2.0")},
	{65, decimal.RequireFromString("1.70"), decimal.RequireFromString("1.5")},
	{0, decimal.RequireFromString("1.80"), decimal.RequireFromString("1.0")},
}

// ttlTier maps a minimum minute to how long the plan stays valid.
type ttlTier struct {
	minMinute int
	minutes   int
}

var ttlTiers = []ttlTier{
	{88, 2},
	{85, 4},
	{82, 6},
	{0, 8},
}

var half = decimal.RequireFromString("0.5")

func planLine(m match.Snapshot, mkt *match.Market) decimal.Decimal {
	goals := decimal.NewFromInt(int64(m.TotalGoals()))
	if ou, ok := mkt.Line(); ok && mkt.HasOverUnder() {
		line := decimal.NewFromFloat(ou)
		if line.GreaterThan(goals) {
			return line
		}
	}
	return goals.Add(half)
}

// PlanBet builds the over/under plan for a BET or PREPARE signal.
func PlanBet(m match.Snapshot, mkt *match.Market, confidence float64, now time.Time) *BetPlan {
	tier := sizingTiers[len(sizingTiers)-1]
	for _, t := range sizingTiers {
		if confidence >= t.minConfidence {
			tier = t
			break
		}
	}
	ttl := ttlTiers[len(ttlTiers)-1].minutes
	for _, t := range ttlTiers {
		if m.Minute >= t.minMinute {
			ttl = t.minutes
			break
		}
	}

	line := planLine(m, mkt)
	return &BetPlan{
		Market:     BetMarketOverUnder,
		Selection:  BetSelectionOver,
		Line:       line,
		MinOdds:    tier.minOdds,
		StakePct:   tier.stakePct,
		TTLMinutes: ttl,
		ExpiresAt:  now.Add(time.Duration(ttl) * time.Minute),
	}
}
