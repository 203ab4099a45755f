package signal

import (
	"fmt"

	"github.com/phenomenon0/latesignal/pkg/football/mapper"
	"github.com/phenomenon0/latesignal/pkg/football/match"
	"github.com/phenomenon0/latesignal/pkg/football/scenario"
)

const (
	edgeMax        = 30.0
	pressureMax    = 10.0
	momentumMax    = 1.5
	trailingOneMax = 4.0
	trailingTwoMax = 1.5
)

// pressure weights: shots, shots on target, xG, corners.
const (
	wShots   = 1.0
	wOnTgt   = 2.0
	wXG      = 3.0
	wCorners = 0.5
	wSum     = wShots + wOnTgt + wXG + wCorners
)

var strengthGapCurve = mapper.MustPiecewise([]mapper.Range{
	{Min: 0, Max: 10, OutMin: 0, OutMax: 2},
	{Min: 10, Max: 30, OutMin: 2, OutMax: 5},
})

var scenarioBonus = map[scenario.Tag]float64{
	scenario.OverSprint:    6,
	scenario.StrongBehind:  7,
	scenario.DeadlockBreak: 8,
	scenario.WeakDefend:    -2,
	scenario.BalancedLate:  0,
	scenario.Blowout:       -5,
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// pressureIndex blends attacking volume into 0–10. Window deltas are used
// when the event timeline supplied them, whole-match totals otherwise.
func pressureIndex(m match.Snapshot) (float64, bool) {
	var shots, onTgt, xg, corners float64
	windowed := m.HasWindows()
	if windowed {
		shots = mapper.RecentShots.Map(float64(intOr(m.ShotsLast15, 0))) / mapper.RecentShots.Ceiling()
		onTgt = mapper.ShotsOnTarget.Map(float64(intOr(m.ShotsOnTargetLast15, 0))) / mapper.ShotsOnTarget.Ceiling()
		xg = mapper.XGLast15.Map(floatOr(m.XGLast15, 0)) / mapper.XGLast15.Ceiling()
		corners = mapper.Corners.Map(float64(intOr(m.CornersLast15, 0))) / mapper.Corners.Ceiling()
	} else {
		shots = mapper.Shots.Map(float64(m.TotalShots())) / mapper.Shots.Ceiling()
		onTgt = mapper.ShotsOnTarget.Map(float64(m.ShotsOnTarget.Total())) / mapper.ShotsOnTarget.Ceiling()
		xg = mapper.XGTotal.Map(m.TotalXG()) / mapper.XGTotal.Ceiling()
		corners = mapper.Corners.Map(float64(m.Corners.Total())) / mapper.Corners.Ceiling()
	}
	idx := pressureMax * (wShots*shots + wOnTgt*onTgt + wXG*xg + wCorners*corners) / wSum
	return mapper.Clamp(idx, 0, pressureMax), windowed
}

// momentum compares the last 15 minutes of shots with the 15 before. A
// sigmoid keeps one extra shot from flipping the sign abruptly.
func momentum(m match.Snapshot) (float64, bool) {
	if m.ShotsLast15 == nil || m.ShotsPrev15 == nil {
		return 0, false
	}
	delta := float64(*m.ShotsLast15 - *m.ShotsPrev15)
	return mapper.Sigmoid(delta, 0, 0.6, -momentumMax, momentumMax), true
}

// xgPace returns the xG per-90 pace: last-15 window when known, whole
// match otherwise.
func xgPace(m match.Snapshot) float64 {
	if m.XGLast15 != nil {
		return *m.XGLast15 * 6
	}
	if m.Minute <= 0 {
		return 0
	}
	return m.TotalXG() / float64(m.Minute) * 90
}

func trailingPressure(m match.Snapshot) float64 {
	minute := float64(m.Minute)
	switch m.AbsGoalDiff() {
	case 1:
		return mapper.Trapezoid(minute, 70, 80, 90, 100, trailingOneMax)
	case 2:
		return mapper.Trapezoid(minute, 70, 80, 90, 100, trailingTwoMax)
	default:
		return 0
	}
}

// ScoreEdge rates attacking pressure plus the scenario adjustment.
func ScoreEdge(m match.Snapshot, strength *match.Strength, tag scenario.Tag) EdgeScore {
	var e EdgeScore

	e.PressureIndex, e.Windowed = pressureIndex(m)
	if e.Windowed {
		e.Description = append(e.Description, fmt.Sprintf("pressure %.2f from last-15 window", e.PressureIndex))
	} else {
		e.Description = append(e.Description, fmt.Sprintf("pressure %.2f from match totals", e.PressureIndex))
	}

	if mom, ok := momentum(m); ok {
		e.Momentum = mom
		e.Description = append(e.Description, fmt.Sprintf("shot momentum %+.2f", mom))
	}

	pace := xgPace(m)
	e.XGVelocity = mapper.XGVelocity.Map(pace)
	e.Description = append(e.Description, fmt.Sprintf("xG pace %.2f/90: %.2f", pace, e.XGVelocity))

	if shots := m.TotalShots(); shots > 0 {
		acc := mapper.Clamp(float64(m.ShotsOnTarget.Total())/float64(shots), 0, 1)
		e.ShotQuality = mapper.ShotAccuracy.Map(acc)
		e.Description = append(e.Description, fmt.Sprintf("shot accuracy %.0f%%: %.2f", acc*100, e.ShotQuality))
	}

	if tag == scenario.StrongBehind && strength != nil {
		e.StrengthGap = strengthGapCurve.Map(strength.StrengthGap)
		e.Description = append(e.Description, fmt.Sprintf("strength gap %.1f: %.2f", strength.StrengthGap, e.StrengthGap))
	}

	e.TrailingPressure = trailingPressure(m)
	if e.TrailingPressure > 0 {
		e.Description = append(e.Description, fmt.Sprintf("trailing side chasing: %.2f", e.TrailingPressure))
	}

	e.ScenarioBonus = scenarioBonus[tag]
	e.Description = append(e.Description, fmt.Sprintf("scenario %s: %+.0f", tag, e.ScenarioBonus))

	sum := e.PressureIndex + e.Momentum + e.XGVelocity + e.ShotQuality + e.StrengthGap + e.TrailingPressure + e.ScenarioBonus
	e.Total = mapper.Clamp(sum, 0, edgeMax)
	return e
}
