package signal

import (
	"github.com/phenomenon0/latesignal/pkg/football/mapper"
	"github.com/phenomenon0/latesignal/pkg/football/match"
)

const (
	confidenceMax   = 100.0
	warmupDiscount  = 0.8
	completenessMax = 35.0
	freshnessMax    = 20.0
	consistencyMax  = 25.0
	confirmationMax = 20.0
)

// xG per shot inside this band looks like a normal match.
const (
	xgPerShotLow  = 0.05
	xgPerShotHigh = 0.2
)

func completeness(m match.Snapshot) float64 {
	var c float64
	add := func(ok bool, pts float64) {
		if ok {
			c += pts
		}
	}
	add(m.StatsAvailable, 8)
	add(m.EventsAvailable, 5)
	add(m.TotalShots() > 0, 5)
	add(m.ShotsOnTarget.Total() > 0, 4)
	add(m.TotalXG() > 0, 6)
	add(m.Corners.Total() > 0, 2)
	add(m.Possession.Total() > 0, 2)
	add(m.DangerousAttacks.Total() > 0, 1)
	add(m.HasWindows(), 2)
	return mapper.Clamp(c, 0, completenessMax)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// directionAgreement checks whether the per-side indicators favour the same
// team. Indicators with no data or a dead-even split are skipped.
func directionAgreement(m match.Snapshot) (float64, bool) {
	var dirs []int
	if m.Possession.Total() > 0 {
		dirs = append(dirs, sign(m.Possession.Home-m.Possession.Away))
	}
	if m.DangerousAttacks.Total() > 0 {
		dirs = append(dirs, sign(float64(m.DangerousAttacks.Home-m.DangerousAttacks.Away)))
	}
	if m.TotalShots() > 0 {
		dirs = append(dirs, sign(float64(m.Shots.Home-m.Shots.Away)))
	}
	if m.TotalXG() > 0 {
		dirs = append(dirs, sign(m.XG.Home-m.XG.Away))
	}

	var nonZero []int
	for _, d := range dirs {
		if d != 0 {
			nonZero = append(nonZero, d)
		}
	}
	if len(nonZero) < 2 {
		return 0, false
	}
	for _, d := range nonZero[1:] {
		if d != nonZero[0] {
			return 3, true
		}
	}
	return 8, true
}

func consistency(m match.Snapshot) float64 {
	var c float64
	shots := m.TotalShots()
	if xg := m.TotalXG(); shots > 0 && xg > 0 {
		perShot := xg / float64(shots)
		if perShot >= xgPerShotLow && perShot <= xgPerShotHigh {
			c += 12
		} else {
			c += 4
		}
	}
	if pts, ok := directionAgreement(m); ok {
		c += pts
	}
	if shots > 0 && m.ShotsOnTarget.Total() <= shots {
		c += 5
	}
	return mapper.Clamp(c, 0, consistencyMax)
}

// marketConfirmation rewards a live market that agrees with the xG debt.
func marketConfirmation(m match.Snapshot, mkt *match.Market) float64 {
	if !mkt.HasOverUnder() || !mkt.IsLive {
		return 0
	}
	implied := mkt.ImpliedOver()
	debt := m.XGDebt()
	switch {
	case implied >= 0.5 && debt >= 1:
		return confirmationMax
	case implied >= 0.5 && debt < 0.5, implied < 0.45 && debt >= 1:
		return 0
	default:
		return 8
	}
}

// EstimateConfidence rates how much the score can be believed (0–100).
// quality supplies the freshness and anomaly terms already computed for the
// score.
func EstimateConfidence(m match.Snapshot, mkt *match.Market, quality QualityScore, warmup bool) ConfidenceBreakdown {
	c := ConfidenceBreakdown{
		Completeness:       completeness(m),
		Freshness:          mapper.Clamp(10+2*quality.Freshness+quality.AnomalyPenalty, 0, freshnessMax),
		Consistency:        consistency(m),
		MarketConfirmation: marketConfirmation(m, mkt),
		WarmupFactor:       1,
	}
	if warmup {
		c.WarmupFactor = warmupDiscount
	}
	total := (c.Completeness + c.Freshness + c.Consistency + c.MarketConfirmation) * c.WarmupFactor
	c.Total = mapper.Clamp(total, 0, confidenceMax)
	return c
}
