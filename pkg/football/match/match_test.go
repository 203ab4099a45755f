package match

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSnapshot_Defaults(t *testing.T) {
	s := NewSnapshot(42, 70, 1, 0)

	assert.Equal(t, int64(42), s.FixtureID)
	assert.False(t, s.StatsAvailable)
	assert.False(t, s.EventsAvailable)
	assert.False(t, s.HasWindows())
	_, ok := s.DataAge(time.Now())
	assert.False(t, ok)
}

func TestNewSnapshot_OptionsMarkAvailability(t *testing.T) {
	s := NewSnapshot(1, 85, 0, 0,
		WithShots(12, 9),
		WithShotsOnTarget(6, 4),
		WithXG(1.8, 1.1),
		WithWindow(Window{ShotsLast15: Int(4), XGLast15: Float(0.6)}),
	)

	assert.True(t, s.StatsAvailable)
	assert.True(t, s.EventsAvailable)
	assert.True(t, s.HasWindows())
	assert.Equal(t, 21, s.TotalShots())
	assert.InDelta(t, 2.9, s.TotalXG(), 1e-9)
	assert.InDelta(t, 2.9, s.XGDebt(), 1e-9)

	s = NewSnapshot(1, 85, 0, 0, WithShots(1, 1), WithStatsAvailable(false))
	assert.False(t, s.StatsAvailable)
}

func TestSnapshot_GoalHelpers(t *testing.T) {
	s := NewSnapshot(1, 60, 1, 4)
	assert.Equal(t, -3, s.GoalDiff())
	assert.Equal(t, 3, s.AbsGoalDiff())
	assert.Equal(t, 5, s.TotalGoals())
}

func TestSnapshot_DataAge(t *testing.T) {
	now := time.Date(2025, 5, 1, 20, 0, 0, 0, time.UTC)

	s := NewSnapshot(1, 80, 0, 0, WithDataTimestamp(now.Add(-90*time.Second)))
	age, ok := s.DataAge(now)
	assert.True(t, ok)
	assert.Equal(t, 90*time.Second, age)

	s = NewSnapshot(1, 80, 0, 0, WithDataTimestamp(now.Add(time.Minute)))
	age, ok = s.DataAge(now)
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), age)
}

func TestMarket_NilSafe(t *testing.T) {
	var m *Market
	assert.False(t, m.HasOverUnder())
	assert.Equal(t, 0.0, m.ImpliedOver())
	_, ok := m.OverDrift()
	assert.False(t, ok)
}

func TestMarket_Drift(t *testing.T) {
	m := &Market{OverOdds: 1.55, PrevOverOdds: 1.70}
	drift, ok := m.OverDrift()
	assert.True(t, ok)
	assert.InDelta(t, 0.15, drift, 1e-9)
	assert.InDelta(t, 1/1.55, m.ImpliedOver(), 1e-9)

	m = &Market{OverOdds: 1.0}
	assert.False(t, m.HasOverUnder())
}

func TestMarket_Line(t *testing.T) {
	tests := []struct {
		name string
		m    *Market
		want float64
		ok   bool
	}{
		{"nil", nil, 0, false},
		{"quoted", &Market{OULine: 2.5}, 2.5, true},
		{"zero", &Market{}, 0, false},
		{"negative", &Market{OULine: -1}, 0, false},
		{"infinite", &Market{OULine: math.Inf(1)}, 0, false},
		{"NaN", &Market{OULine: math.NaN()}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, ok := tt.m.Line()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, line)
		})
	}
}

func TestStrength_StrongSide(t *testing.T) {
	tests := []struct {
		name string
		s    *Strength
		want int
	}{
		{"nil", nil, 0},
		{"home strong", &Strength{IsHomeStrong: true}, 1},
		{"away strong", &Strength{IsAwayStrong: true}, -1},
		{"both, home higher", &Strength{IsHomeStrong: true, IsAwayStrong: true, HomeStrength: 80, AwayStrength: 75}, 1},
		{"both, away higher", &Strength{IsHomeStrong: true, IsAwayStrong: true, HomeStrength: 70, AwayStrength: 75}, -1},
		{"both equal", &Strength{IsHomeStrong: true, IsAwayStrong: true, HomeStrength: 75, AwayStrength: 75}, 0},
		{"neither", &Strength{HomeStrength: 40, AwayStrength: 30}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.StrongSide())
		})
	}
}

func TestNewStrength(t *testing.T) {
	s := NewStrength(82, 55, 70)
	assert.True(t, s.IsHomeStrong)
	assert.False(t, s.IsAwayStrong)
	assert.Equal(t, 27.0, s.StrengthGap)
}
