package signal

import (
	"fmt"

	"github.com/phenomenon0/latesignal/pkg/football/mapper"
	"github.com/phenomenon0/latesignal/pkg/football/match"
)

const (
	timingMax       = 20.0
	timingBellPeak  = 87.0
	timingBellWidth = 4.0
	timingBellMax   = 3.0
)

var timingCurve = mapper.MustPiecewise([]mapper.Range{
	{Min: 65, Max: 70, OutMin: 2, OutMax: 6},
	{Min: 70, Max: 75, OutMin: 6, OutMax: 10},
	{Min: 75, Max: 80, OutMin: 10, OutMax: 13},
	{Min: 80, Max: 85, OutMin: 13, OutMax: 16},
	{Min: 85, Max: 90, OutMin: 16, OutMax: 20},
}, mapper.WithCap(timingMax))

// ScoreTiming rates the match clock.
func ScoreTiming(m match.Snapshot, warmup bool) TimingScore {
	t := TimingScore{Curve: timingCurve.Map(float64(m.Minute))}
	t.Description = append(t.Description, fmt.Sprintf("minute %d: %.2f", m.Minute, t.Curve))

	if !warmup && m.AbsGoalDiff() <= 1 {
		t.UrgencyBonus = mapper.Bell(float64(m.Minute), timingBellPeak, timingBellWidth, timingBellMax)
		if t.UrgencyBonus >= 0.01 {
			t.Description = append(t.Description, fmt.Sprintf("closing-minutes urgency %.2f", t.UrgencyBonus))
		}
	}

	t.Total = mapper.Clamp(t.Curve+t.UrgencyBonus, 0, timingMax)
	return t
}
