package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/phenomenon0/latesignal/pkg/football/match"
	"github.com/phenomenon0/latesignal/pkg/football/scenario"
)

func TestScoreBase(t *testing.T) {
	tests := []struct {
		name        string
		minute      int
		home, away  int
		want        float64
		wantUrgency bool
	}{
		{"goalless before 80", 70, 0, 0, 15, false},
		{"one each at 80", 80, 1, 1, 17, true},
		{"one goal lead at 85", 85, 1, 0, 17.5, true},
		{"two goal lead", 85, 2, 0, 7, false},
		{"three goal lead", 85, 3, 0, 2, false},
		{"goal fest", 85, 4, 3, 13.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ScoreBase(match.NewSnapshot(1, tt.minute, tt.home, tt.away))
			assert.InDelta(t, tt.want, b.Total, 1e-9)
			assert.Equal(t, tt.wantUrgency, b.UrgencyBonus > 0)
			assert.NotEmpty(t, b.Description)
		})
	}
}

func TestScoreEdge_WindowsPreferred(t *testing.T) {
	totals := match.NewSnapshot(1, 82, 1, 1,
		match.WithShots(10, 8), match.WithShotsOnTarget(4, 3), match.WithXG(1.2, 0.9))
	windowed := totals
	windowed.ShotsLast15 = match.Int(8)
	windowed.ShotsOnTargetLast15 = match.Int(5)
	windowed.XGLast15 = match.Float(1.2)

	e1 := ScoreEdge(totals, nil, scenario.BalancedLate)
	e2 := ScoreEdge(windowed, nil, scenario.BalancedLate)

	assert.False(t, e1.Windowed)
	assert.True(t, e2.Windowed)
	assert.Greater(t, e2.PressureIndex, e1.PressureIndex)
	assert.InDelta(t, 8, e2.XGVelocity, 1e-9)
}

func TestScoreEdge_Momentum(t *testing.T) {
	s := match.NewSnapshot(1, 82, 1, 1, match.WithWindow(match.Window{
		ShotsLast15: match.Int(8),
		ShotsPrev15: match.Int(2),
	}))
	rising := ScoreEdge(s, nil, scenario.BalancedLate)
	assert.Greater(t, rising.Momentum, 1.0)

	s.ShotsLast15, s.ShotsPrev15 = match.Int(2), match.Int(8)
	falling := ScoreEdge(s, nil, scenario.BalancedLate)
	assert.Less(t, falling.Momentum, -1.0)

	s.ShotsPrev15 = nil
	assert.Zero(t, ScoreEdge(s, nil, scenario.BalancedLate).Momentum)
}

func TestScoreEdge_StrengthGapOnlyWhenStrongBehind(t *testing.T) {
	s := match.NewSnapshot(1, 82, 0, 1)
	strength := match.NewStrength(88, 60, 75)

	behind := ScoreEdge(s, strength, scenario.StrongBehind)
	assert.InDelta(t, 2+18.0/20*3, behind.StrengthGap, 1e-9)

	other := ScoreEdge(s, strength, scenario.BalancedLate)
	assert.Zero(t, other.StrengthGap)
}

func TestScoreEdge_ScenarioBonus(t *testing.T) {
	s := match.NewSnapshot(1, 60, 0, 0, match.WithShots(4, 4), match.WithXG(0.5, 0.4))
	for tag, bonus := range scenarioBonus {
		e := ScoreEdge(s, nil, tag)
		assert.Equal(t, bonus, e.ScenarioBonus, string(tag))
		assert.GreaterOrEqual(t, e.Total, 0.0)
	}
}

func TestTrailingPressure(t *testing.T) {
	assert.InDelta(t, 4, trailingPressure(match.NewSnapshot(1, 85, 1, 0)), 1e-9)
	assert.InDelta(t, 2, trailingPressure(match.NewSnapshot(1, 75, 1, 0)), 1e-9)
	assert.InDelta(t, 1.5, trailingPressure(match.NewSnapshot(1, 85, 0, 2)), 1e-9)
	assert.Zero(t, trailingPressure(match.NewSnapshot(1, 85, 0, 0)))
	assert.Zero(t, trailingPressure(match.NewSnapshot(1, 60, 1, 0)))
}

func TestScoreTiming(t *testing.T) {
	assert.InDelta(t, 2, ScoreTiming(match.NewSnapshot(1, 30, 0, 0), false).Curve, 1e-9)
	assert.InDelta(t, 13, ScoreTiming(match.NewSnapshot(1, 80, 0, 0), false).Curve, 1e-9)

	peak := ScoreTiming(match.NewSnapshot(1, 87, 0, 0), false)
	assert.InDelta(t, 3, peak.UrgencyBonus, 1e-9)
	assert.Equal(t, timingMax, peak.Total)

	warm := ScoreTiming(match.NewSnapshot(1, 78, 0, 0), true)
	assert.Zero(t, warm.UrgencyBonus)

	wide := ScoreTiming(match.NewSnapshot(1, 87, 2, 0), false)
	assert.Zero(t, wide.UrgencyBonus)
}

func TestScoreMarket(t *testing.T) {
	busy := match.NewSnapshot(1, 85, 0, 0, match.WithShots(12, 10), match.WithXG(1.6, 1.2))
	quiet := match.NewSnapshot(1, 85, 0, 0, match.WithShots(3, 2), match.WithXG(0.2, 0.1))

	tests := []struct {
		name      string
		snap      match.Snapshot
		mkt       *match.Market
		hasData   bool
		bonus     float64
		wantTotal float64
	}{
		{"nil market", busy, nil, false, 0, 0},
		{"no over price", busy, &match.Market{WinHome: 2.1}, false, 0, 0},
		{"both lean over", busy, &match.Market{OverOdds: 1.60, OULine: 0.5}, true, 4, 6 + 0.025/0.2*4 + 4},
		{"both lean under", quiet, &match.Market{OverOdds: 2.50, OULine: 0.5}, true, 1, 0.1/0.15*3 + 1},
		{"line too far", busy, &match.Market{OverOdds: 1.60, OULine: 2.5}, true, 0, 6 + 0.025/0.2*4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ScoreMarket(tt.snap, tt.mkt)
			assert.Equal(t, tt.hasData, s.HasData)
			assert.Equal(t, tt.bonus, s.ConsistencyBonus)
			assert.InDelta(t, tt.wantTotal, s.Total, 1e-9)
		})
	}
}

func TestScoreMarket_LineMovement(t *testing.T) {
	s := match.NewSnapshot(1, 85, 0, 0)

	shortened := ScoreMarket(s, &match.Market{OverOdds: 1.80, PrevOverOdds: 1.90})
	assert.InDelta(t, 3.5, shortened.LineMovement, 1e-6)

	drifted := ScoreMarket(s, &match.Market{OverOdds: 1.90, PrevOverOdds: 1.80})
	assert.Zero(t, drifted.LineMovement)
}

func TestScoreQuality(t *testing.T) {
	now := time.Date(2025, 4, 12, 21, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		snap      match.Snapshot
		want      float64
		anomalies []string
	}{
		{
			name: "complete and fresh",
			snap: match.NewSnapshot(1, 80, 0, 0, match.WithShots(5, 5), match.WithXG(1, 1), match.WithEvents(),
				match.WithDataTimestamp(now.Add(-30*time.Second))),
			want: 9,
		},
		{
			name: "ninety seconds old",
			snap: match.NewSnapshot(1, 80, 0, 0, match.WithShots(5, 5), match.WithDataTimestamp(now.Add(-90*time.Second))),
			want: 4,
		},
		{
			name: "stale",
			snap: match.NewSnapshot(1, 80, 0, 0, match.WithShots(5, 5), match.WithDataTimestamp(now.Add(-10*time.Minute))),
			want: 0,
		},
		{
			name:      "no shots after half an hour",
			snap:      match.NewSnapshot(1, 40, 0, 0),
			want:      -5,
			anomalies: []string{AnomalyZeroShots},
		},
		{
			name:      "zero shots at 30 is fine",
			snap:      match.NewSnapshot(1, 30, 0, 0),
			want:      0,
			anomalies: nil,
		},
		{
			name:      "everything wrong",
			snap:      match.NewSnapshot(1, 80, 0, 0, match.WithShotsOnTarget(2, 1), match.WithPossession(60, 60)),
			want:      -7,
			anomalies: []string{AnomalyZeroShots, AnomalyOnTargetOverAll, AnomalyPossessionSum},
		},
		{
			name: "possession within tolerance",
			snap: match.NewSnapshot(1, 80, 0, 0, match.WithShots(4, 4), match.WithPossession(52, 51)),
			want: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := ScoreQuality(tt.snap, now)
			assert.InDelta(t, tt.want, q.Total, 1e-9)
			assert.Equal(t, tt.anomalies, q.Anomalies)
		})
	}
}

func TestEstimateConfidence(t *testing.T) {
	now := time.Date(2025, 4, 12, 21, 0, 0, 0, time.UTC)
	snap := goallessLate()
	quality := ScoreQuality(snap, now)

	offline := EstimateConfidence(snap, nil, quality, false)
	assert.InDelta(t, 23, offline.Completeness, 1e-9)
	assert.InDelta(t, 10, offline.Freshness, 1e-9)
	assert.InDelta(t, 25, offline.Consistency, 1e-9)
	assert.Zero(t, offline.MarketConfirmation)
	assert.InDelta(t, 58, offline.Total, 1e-9)

	prematch := EstimateConfidence(snap, &match.Market{OverOdds: 1.55}, quality, false)
	assert.Zero(t, prematch.MarketConfirmation)

	live := EstimateConfidence(snap, &match.Market{OverOdds: 1.55, IsLive: true}, quality, false)
	assert.InDelta(t, 20, live.MarketConfirmation, 1e-9)

	disagree := EstimateConfidence(snap, &match.Market{OverOdds: 3.2, IsLive: true}, quality, false)
	assert.Zero(t, disagree.MarketConfirmation)

	warm := EstimateConfidence(snap, nil, quality, true)
	assert.InDelta(t, 58*0.8, warm.Total, 1e-9)
}

func TestDirectionAgreement(t *testing.T) {
	agree := match.NewSnapshot(1, 80, 0, 0, match.WithShots(10, 4), match.WithXG(1.4, 0.3), match.WithPossession(60, 40))
	pts, ok := directionAgreement(agree)
	assert.True(t, ok)
	assert.Equal(t, 8.0, pts)

	mixed := match.NewSnapshot(1, 80, 0, 0, match.WithShots(10, 4), match.WithXG(0.4, 0.9))
	pts, ok = directionAgreement(mixed)
	assert.True(t, ok)
	assert.Equal(t, 3.0, pts)

	single := match.NewSnapshot(1, 80, 0, 0, match.WithShots(10, 4))
	_, ok = directionAgreement(single)
	assert.False(t, ok)
}
