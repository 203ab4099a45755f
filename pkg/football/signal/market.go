package signal

import (
	"fmt"

	"github.com/phenomenon0/latesignal/pkg/football/mapper"
	"github.com/phenomenon0/latesignal/pkg/football/match"
)

const (
	marketMax         = 20.0
	overLeanBonus     = 4.0
	underLeanBonus    = 1.0
	maxGoalsToLine    = 2.0
	statsLeanOver     = 0.5
	impliedLeanOver   = 0.5
	underLeanMaxDebt  = 0.5
	underLeanMaxShots = 10
	impliedLeanUnder  = 0.45
)

var lineMovementCurve = mapper.MustPiecewise([]mapper.Range{
	{Min: 0, Max: 0.05, OutMin: 0, OutMax: 2},
	{Min: 0.05, Max: 0.15, OutMin: 2, OutMax: 5},
	{Min: 0.15, Max: 0.3, OutMin: 5, OutMax: 8},
})

var priceLevelCurve = mapper.MustPiecewise([]mapper.Range{
	{Min: 0.3, Max: 0.45, OutMin: 0, OutMax: 3},
	{Min: 0.45, Max: 0.6, OutMin: 3, OutMax: 6},
	{Min: 0.6, Max: 0.8, OutMin: 6, OutMax: 10},
})

// statsLean is 0–1: how strongly the statistics alone point to more goals.
func statsLean(m match.Snapshot) float64 {
	debt := mapper.XGDebt.Map(m.XGDebt()) / mapper.XGDebt.Ceiling()
	shots := mapper.Shots.Map(float64(m.TotalShots())) / mapper.Shots.Ceiling()
	return (debt + shots) / 2
}

// ScoreMarket rates what the bookmaker is saying. A nil market, or one
// without an over price, contributes nothing.
func ScoreMarket(m match.Snapshot, mkt *match.Market) MarketScore {
	var s MarketScore
	if !mkt.HasOverUnder() {
		s.Description = []string{"no market data"}
		return s
	}
	s.HasData = true

	if drift, ok := mkt.OverDrift(); ok && drift > 0 {
		s.LineMovement = lineMovementCurve.Map(drift)
		s.Description = append(s.Description, fmt.Sprintf("over shortened by %.2f: %.2f", drift, s.LineMovement))
	}

	implied := mkt.ImpliedOver()
	s.PriceLevel = priceLevelCurve.Map(implied)
	s.Description = append(s.Description, fmt.Sprintf("implied over %.0f%%: %.2f", implied*100, s.PriceLevel))

	line, hasLine := mkt.Line()
	goalsNeeded := line - float64(m.TotalGoals())
	switch {
	case hasLine && goalsNeeded > maxGoalsToLine:
		s.Description = append(s.Description, fmt.Sprintf("line %.2f needs %.1f more goals", line, goalsNeeded))
	case statsLean(m) >= statsLeanOver && implied >= impliedLeanOver:
		s.ConsistencyBonus = overLeanBonus
		s.Description = append(s.Description, "stats and market both lean over")
	case m.XGDebt() < underLeanMaxDebt && m.TotalShots() < underLeanMaxShots && implied < impliedLeanUnder:
		s.ConsistencyBonus = underLeanBonus
		s.Description = append(s.Description, "stats and market both lean under")
	}

	s.Total = mapper.Clamp(s.LineMovement+s.PriceLevel+s.ConsistencyBonus, 0, marketMax)
	return s
}
