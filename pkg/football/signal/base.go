package signal

import (
	"fmt"

	"github.com/phenomenon0/latesignal/pkg/football/mapper"
	"github.com/phenomenon0/latesignal/pkg/football/match"
)

const baseMax = 20.0

// goal difference → points; the last entry covers every larger difference.
var goalDiffPoints = []float64{12, 9, 4, 0}

// total goals → openness bonus; the last entry covers every larger total.
var opennessByGoals = []float64{3, 5, 3, 2, 1}

var baseUrgency = mapper.MustPiecewise([]mapper.Range{
	{Min: 80, Max: 90, OutMin: 2, OutMax: 5},
}, mapper.WithCap(5))

func lookup(table []float64, i int) float64 {
	if i < 0 {
		i = 0
	}
	if i >= len(table) {
		i = len(table) - 1
	}
	return table[i]
}

// ScoreBase rates how open the scoreline still is.
func ScoreBase(m match.Snapshot) BaseScore {
	gd := m.AbsGoalDiff()
	goals := m.TotalGoals()

	b := BaseScore{
		GoalDiffPoints: lookup(goalDiffPoints, gd),
		OpennessBonus:  lookup(opennessByGoals, goals),
	}
	b.Description = append(b.Description,
		fmt.Sprintf("goal difference %d: %.1f", gd, b.GoalDiffPoints),
		fmt.Sprintf("%d goals scored: openness %.1f", goals, b.OpennessBonus),
	)

	if m.Minute >= activeStartMinute && gd <= 1 {
		b.UrgencyBonus = baseUrgency.Map(float64(m.Minute))
		b.Description = append(b.Description, fmt.Sprintf("close game at %d': urgency %.1f", m.Minute, b.UrgencyBonus))
	}

	b.Total = mapper.Clamp(b.GoalDiffPoints+b.OpennessBonus+b.UrgencyBonus, 0, baseMax)
	return b
}
