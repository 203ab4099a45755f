package match

import "time"

// Option sets optional snapshot fields.
type Option func(*Snapshot)

// NewSnapshot builds a snapshot with named defaults: no statistics, no
// events, unknown data timestamp. Options that supply statistics mark the
// snapshot as StatsAvailable.
func NewSnapshot(fixtureID int64, minute, homeGoals, awayGoals int, opts ...Option) Snapshot {
	s := Snapshot{
		FixtureID: fixtureID,
		Minute:    minute,
		Score:     Side[int]{Home: homeGoals, Away: awayGoals},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithShots sets total shots per side.
func WithShots(home, away int) Option {
	return func(s *Snapshot) {
		s.Shots = Side[int]{Home: home, Away: away}
		s.StatsAvailable = true
	}
}

// WithShotsOnTarget sets shots on target per side.
func WithShotsOnTarget(home, away int) Option {
	return func(s *Snapshot) {
		s.ShotsOnTarget = Side[int]{Home: home, Away: away}
		s.StatsAvailable = true
	}
}

// WithXG sets expected goals per side.
func WithXG(home, away float64) Option {
	return func(s *Snapshot) {
		s.XG = Side[float64]{Home: home, Away: away}
		s.StatsAvailable = true
	}
}

// WithCorners sets corners per side.
func WithCorners(home, away int) Option {
	return func(s *Snapshot) {
		s.Corners = Side[int]{Home: home, Away: away}
		s.StatsAvailable = true
	}
}

// WithPossession sets ball possession percentages per side.
func WithPossession(home, away float64) Option {
	return func(s *Snapshot) {
		s.Possession = Side[float64]{Home: home, Away: away}
		s.StatsAvailable = true
	}
}

// WithDangerousAttacks sets dangerous attacks per side.
func WithDangerousAttacks(home, away int) Option {
	return func(s *Snapshot) {
		s.DangerousAttacks = Side[int]{Home: home, Away: away}
		s.StatsAvailable = true
	}
}

// Window carries the short-window deltas derived from the event timeline.
// Nil fields stay absent on the snapshot.
type Window struct {
	ShotsLast15         *int
	ShotsOnTargetLast15 *int
	XGLast15            *float64
	ShotsPrev15         *int
	CornersLast15       *int
}

// WithWindow sets the short-window deltas and marks events as available.
func WithWindow(w Window) Option {
	return func(s *Snapshot) {
		s.ShotsLast15 = w.ShotsLast15
		s.ShotsOnTargetLast15 = w.ShotsOnTargetLast15
		s.XGLast15 = w.XGLast15
		s.ShotsPrev15 = w.ShotsPrev15
		s.CornersLast15 = w.CornersLast15
		s.EventsAvailable = true
	}
}

// WithEvents marks the event timeline as available.
func WithEvents() Option {
	return func(s *Snapshot) {
		s.EventsAvailable = true
	}
}

// WithStatsAvailable overrides the statistics flag.
func WithStatsAvailable(ok bool) Option {
	return func(s *Snapshot) {
		s.StatsAvailable = ok
	}
}

// WithDataTimestamp stamps the snapshot with the provider data time.
func WithDataTimestamp(ts time.Time) Option {
	return func(s *Snapshot) {
		s.DataTimestamp = ts
	}
}

// Int returns a pointer to v, for window fields.
func Int(v int) *int {
	return &v
}

// Float returns a pointer to v, for window fields.
func Float(v float64) *float64 {
	return &v
}

// NewStrength derives the strong flags and gap from raw strength ratings.
// A side is strong when its rating reaches threshold.
func NewStrength(home, away, threshold float64) *Strength {
	gap := home - away
	if gap < 0 {
		gap = -gap
	}
	return &Strength{
		HomeStrength: home,
		AwayStrength: away,
		IsHomeStrong: home >= threshold,
		IsAwayStrong: away >= threshold,
		StrengthGap:  gap,
	}
}
