package signal

import (
	"fmt"
	"math"
	"time"

	"github.com/phenomenon0/latesignal/pkg/football/mapper"
	"github.com/phenomenon0/latesignal/pkg/football/match"
)

const qualityMax = 10.0

// Anomaly names, echoed in reasons.
const (
	AnomalyZeroShots       = "zero_shots_after_30"
	AnomalyOnTargetOverAll = "on_target_exceeds_shots"
	AnomalyPossessionSum   = "possession_sum_off"
)

// freshnessTerm maps provider data age to -3..+3; unknown age is neutral.
func freshnessTerm(m match.Snapshot, now time.Time) (float64, string) {
	age, ok := m.DataAge(now)
	switch {
	case !ok:
		return 0, "data age unknown"
	case age < time.Minute:
		return 3, fmt.Sprintf("data %s old", age.Round(time.Second))
	case age < 2*time.Minute:
		return 1, fmt.Sprintf("data %s old", age.Round(time.Second))
	case age <= 5*time.Minute:
		return 0, fmt.Sprintf("data %s old", age.Round(time.Second))
	default:
		return -3, fmt.Sprintf("stale data, %s old", age.Round(time.Second))
	}
}

type anomaly struct {
	name    string
	penalty float64
}

func detectAnomalies(m match.Snapshot) []anomaly {
	var out []anomaly
	if m.Minute > 30 && m.TotalShots() == 0 {
		out = append(out, anomaly{AnomalyZeroShots, -5})
	}
	if m.ShotsOnTarget.Total() > m.TotalShots() {
		out = append(out, anomaly{AnomalyOnTargetOverAll, -3})
	}
	if sum := m.Possession.Total(); sum > 0 && math.Abs(sum-100) > 5 {
		out = append(out, anomaly{AnomalyPossessionSum, -2})
	}
	return out
}

// ScoreQuality rates how far the inputs can be trusted.
func ScoreQuality(m match.Snapshot, now time.Time) QualityScore {
	var q QualityScore

	if m.StatsAvailable {
		q.Completeness += 3
		q.Description = append(q.Description, "statistics available")
	}
	if m.EventsAvailable {
		q.Completeness += 2
		q.Description = append(q.Description, "events available")
	}
	if m.TotalXG() > 0 {
		q.Completeness++
	}

	var desc string
	q.Freshness, desc = freshnessTerm(m, now)
	q.Description = append(q.Description, desc)

	for _, a := range detectAnomalies(m) {
		q.AnomalyPenalty += a.penalty
		q.Anomalies = append(q.Anomalies, a.name)
		q.Description = append(q.Description, fmt.Sprintf("anomaly %s: %.0f", a.name, a.penalty))
	}

	q.Total = mapper.Clamp(q.Completeness+q.Freshness+q.AnomalyPenalty, -qualityMax, qualityMax)
	return q
}
