package signal

import (
	"math"

	"github.com/phenomenon0/latesignal/pkg/football/match"
)

const (
	regulationMinutes = 90
	stoppageAllowance = 3
	leagueGoalsPer90  = 2.6
)

// goal difference → scoring-rate factor; the last entry covers every larger
// difference.
var poissonGoalDiffFactor = []float64{1.0, 1.15, 0.85}

// LateGoalProbability estimates P(at least one more goal) from the match xG
// rate over the remaining regulation time plus stoppage. It is informational
// and never feeds the score.
func LateGoalProbability(m match.Snapshot) float64 {
	rate := leagueGoalsPer90 / regulationMinutes
	if xg := m.TotalXG(); m.Minute >= 1 && xg > 0 {
		rate = xg / float64(m.Minute)
	}
	remaining := float64(max(regulationMinutes-m.Minute, 0) + stoppageAllowance)
	lambda := rate * remaining * lookup(poissonGoalDiffFactor, m.AbsGoalDiff())
	return 1 - math.Exp(-lambda)
}
