// Package match holds the immutable inputs of the signal engine: one match
// snapshot per poll, an optional market snapshot and optional team strength.
package match

import (
	"math"
	"time"
)

// Side is the per-team value pair used throughout the snapshot.
type Side[T int | float64] struct {
	Home T `json:"home"`
	Away T `json:"away"`
}

// Total returns Home + Away.
func (s Side[T]) Total() T {
	return s.Home + s.Away
}

// Snapshot describes one match at one minute. It is built once per poll and
// never mutated afterwards; treat it as a value.
type Snapshot struct {
	FixtureID int64 `json:"fixture_id"`
	Minute    int   `json:"minute"`

	Score Side[int] `json:"score"`

	Shots            Side[int]     `json:"shots"`
	ShotsOnTarget    Side[int]     `json:"shots_on_target"`
	XG               Side[float64] `json:"xg"`
	Corners          Side[int]     `json:"corners"`
	Possession       Side[float64] `json:"possession"`
	DangerousAttacks Side[int]     `json:"dangerous_attacks"`

	// Short-window deltas; nil means the collector had no event timeline.
	ShotsLast15         *int     `json:"shots_last_15,omitempty"`
	ShotsOnTargetLast15 *int     `json:"shots_on_target_last_15,omitempty"`
	XGLast15            *float64 `json:"xg_last_15,omitempty"`
	ShotsPrev15         *int     `json:"shots_prev_15,omitempty"`
	CornersLast15       *int     `json:"corners_last_15,omitempty"`

	StatsAvailable  bool      `json:"stats_available"`
	EventsAvailable bool      `json:"events_available"`
	DataTimestamp   time.Time `json:"data_timestamp,omitempty"`
}

// GoalDiff returns home minus away goals.
func (s Snapshot) GoalDiff() int {
	return s.Score.Home - s.Score.Away
}

// AbsGoalDiff returns |GoalDiff|.
func (s Snapshot) AbsGoalDiff() int {
	d := s.GoalDiff()
	if d < 0 {
		return -d
	}
	return d
}

// TotalGoals returns goals scored by both sides.
func (s Snapshot) TotalGoals() int {
	return s.Score.Total()
}

// TotalShots returns shots by both sides.
func (s Snapshot) TotalShots() int {
	return s.Shots.Total()
}

// TotalXG returns expected goals of both sides.
func (s Snapshot) TotalXG() float64 {
	return s.XG.Total()
}

// XGDebt is total xG minus goals actually scored.
func (s Snapshot) XGDebt() float64 {
	return s.TotalXG() - float64(s.TotalGoals())
}

// HasWindows reports whether any short-window delta is present.
func (s Snapshot) HasWindows() bool {
	return s.ShotsLast15 != nil || s.ShotsOnTargetLast15 != nil || s.XGLast15 != nil || s.CornersLast15 != nil
}

// DataAge returns how old the snapshot data is at now. ok is false when the
// collector did not stamp the data.
func (s Snapshot) DataAge(now time.Time) (age time.Duration, ok bool) {
	if s.DataTimestamp.IsZero() {
		return 0, false
	}
	age = now.Sub(s.DataTimestamp)
	if age < 0 {
		age = 0
	}
	return age, true
}

// Market is the optional bookmaker view of the match. A nil *Market means no
// market confirmation is available.
type Market struct {
	OverOdds  float64 `json:"over_odds"`
	UnderOdds float64 `json:"under_odds"`
	OULine    float64 `json:"ou_line"`

	AsianHandicapLine float64 `json:"asian_handicap_line"`
	AsianHandicapHome float64 `json:"asian_handicap_home"`
	AsianHandicapAway float64 `json:"asian_handicap_away"`

	WinHome float64 `json:"win_home"`
	WinDraw float64 `json:"win_draw"`
	WinAway float64 `json:"win_away"`

	// Previous tick prices, zero when unknown.
	PrevOverOdds  float64 `json:"prev_over_odds"`
	PrevUnderOdds float64 `json:"prev_under_odds"`

	IsLive bool `json:"is_live"`
}

// ImpliedOver returns 1/OverOdds, or 0 when the price is not usable.
func (m *Market) ImpliedOver() float64 {
	if m == nil || !validOdd(m.OverOdds) {
		return 0
	}
	return 1 / m.OverOdds
}

// OverDrift returns how much the over price shortened since the previous
// tick (positive = shortening). ok is false without a previous price.
func (m *Market) OverDrift() (drift float64, ok bool) {
	if m == nil || !validOdd(m.OverOdds) || !validOdd(m.PrevOverOdds) {
		return 0, false
	}
	return m.PrevOverOdds - m.OverOdds, true
}

// Line returns the quoted over/under line. ok is false when no positive,
// finite line is quoted.
func (m *Market) Line() (line float64, ok bool) {
	if m == nil || !(m.OULine > 0) || math.IsInf(m.OULine, 0) {
		return 0, false
	}
	return m.OULine, true
}

// HasOverUnder reports whether an over price is quoted.
func (m *Market) HasOverUnder() bool {
	return m != nil && validOdd(m.OverOdds)
}

func validOdd(o float64) bool {
	return o > 1 && !math.IsInf(o, 0) && !math.IsNaN(o)
}

// Strength is the externally supplied standings view. It is treated as
// opaque, already validated input.
type Strength struct {
	HomeStrength float64 `json:"home_strength"`
	AwayStrength float64 `json:"away_strength"`
	IsHomeStrong bool    `json:"is_home_strong"`
	IsAwayStrong bool    `json:"is_away_strong"`
	StrengthGap  float64 `json:"strength_gap"`
}

// StrongSide returns +1 for home, -1 for away and 0 when neither side is the
// single strong side.
func (s *Strength) StrongSide() int {
	if s == nil {
		return 0
	}
	switch {
	case s.IsHomeStrong && !s.IsAwayStrong:
		return 1
	case s.IsAwayStrong && !s.IsHomeStrong:
		return -1
	case s.IsHomeStrong && s.IsAwayStrong:
		if s.HomeStrength > s.AwayStrength {
			return 1
		}
		if s.AwayStrength > s.HomeStrength {
			return -1
		}
	}
	return 0
}
