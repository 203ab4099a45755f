package signal

import (
	"fmt"
	"time"

	"github.com/phenomenon0/latesignal/pkg/football/mapper"
	"github.com/phenomenon0/latesignal/pkg/football/match"
	"github.com/phenomenon0/latesignal/pkg/football/scenario"
)

const (
	scoreMax       = 100.0
	warmupScoreCap = 75.0
)

// Action thresholds: score and confidence floors per action.
const (
	betScore              = 85.0
	betConfidence         = 70.0
	prepareScore          = 75.0
	prepareConfidence     = 55.0
	watchScore            = 65.0
	warmupWatchScore      = 60.0
	warmupWatchConfidence = 40.0
)

// Engine assembles signals. The zero value is ready to use and reads the
// wall clock.
type Engine struct {
	now func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock injects the time source used for data freshness and plan expiry.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) clock() time.Time {
	if e == nil || e.now == nil {
		return time.Now()
	}
	return e.now()
}

var defaultEngine = NewEngine()

// ComputeSignal computes a signal with the default engine. market and
// strength may be nil.
func ComputeSignal(m match.Snapshot, market *match.Market, strength *match.Strength) Signal {
	return defaultEngine.Compute(m, market, strength)
}

// Compute runs classification, the five scorers and the confidence estimate,
// then picks an action. It is safe for concurrent use.
func (e *Engine) Compute(m match.Snapshot, market *match.Market, strength *match.Strength) Signal {
	now := e.clock()
	phase := PhaseFor(m.Minute)
	warmup := phase == PhaseWarmup

	tag, rule := scenario.Explain(m, strength)

	breakdown := ScoreBreakdown{
		Base:    ScoreBase(m),
		Edge:    ScoreEdge(m, strength, tag),
		Timing:  ScoreTiming(m, warmup),
		Market:  ScoreMarket(m, market),
		Quality: ScoreQuality(m, now),
	}
	conf := EstimateConfidence(m, market, breakdown.Quality, warmup)

	score := mapper.Clamp(breakdown.Sum(), 0, scoreMax)
	capped := false
	if warmup && score > warmupScoreCap {
		score = warmupScoreCap
		capped = true
	}

	sig := Signal{
		FixtureID:           m.FixtureID,
		Minute:              m.Minute,
		Score:               score,
		Confidence:          conf.Total,
		Scenario:            tag,
		Rule:                rule,
		Phase:               phase,
		IsWarmup:            warmup,
		PoissonGoalProb:     LateGoalProbability(m),
		ScoreBreakdown:      breakdown,
		ConfidenceBreakdown: conf,
		ComputedAt:          now,
	}
	sig.Action = decide(phase, tag, score, conf.Total)
	if phase == PhaseActive && (sig.Action == ActionBet || sig.Action == ActionPrepare) {
		sig.BetPlan = PlanBet(m, market, conf.Total, now)
	}
	sig.Reasons = buildReasons(m, market, sig, capped, now)
	return sig
}

func decide(phase Phase, tag scenario.Tag, score, confidence float64) Action {
	if tag == scenario.Blowout {
		return ActionIgnore
	}
	switch phase {
	case PhaseInactive:
		return ActionIgnore
	case PhaseWarmup:
		if score >= warmupWatchScore && confidence >= warmupWatchConfidence {
			return ActionWatch
		}
		return ActionIgnore
	}
	switch {
	case score >= betScore && confidence >= betConfidence:
		return ActionBet
	case score >= prepareScore && confidence >= prepareConfidence:
		return ActionPrepare
	case score >= watchScore:
		return ActionWatch
	default:
		return ActionIgnore
	}
}

func buildReasons(m match.Snapshot, mkt *match.Market, sig Signal, capped bool, now time.Time) Reasons {
	r := Reasons{
		Tags: []string{
			"phase:" + string(sig.Phase),
			"scenario:" + string(sig.Scenario),
			"rule:" + sig.Rule,
		},
		Metrics: map[string]float64{
			"minute":        float64(m.Minute),
			"goals_total":   float64(m.TotalGoals()),
			"goal_diff":     float64(m.GoalDiff()),
			"shots_total":   float64(m.TotalShots()),
			"sot_total":     float64(m.ShotsOnTarget.Total()),
			"xg_total":      m.TotalXG(),
			"xg_debt":       m.XGDebt(),
			"corners_total": float64(m.Corners.Total()),
			"score_raw":     sig.ScoreBreakdown.Sum(),
		},
	}
	if sig.Scenario == scenario.Blowout {
		r.Tags = append(r.Tags, "blowout_veto")
	}
	if capped {
		r.Tags = append(r.Tags, "warmup_cap")
	}
	if !sig.ScoreBreakdown.Edge.Windowed {
		r.Tags = append(r.Tags, "pressure:match_totals")
	}
	for _, a := range sig.ScoreBreakdown.Quality.Anomalies {
		r.Tags = append(r.Tags, "anomaly:"+a)
	}

	if mkt.HasOverUnder() {
		r.Metrics["over_odds"] = mkt.OverOdds
		r.Metrics["implied_over"] = mkt.ImpliedOver()
		if line, ok := mkt.Line(); ok {
			r.Metrics["ou_line"] = line
		}
		if drift, ok := mkt.OverDrift(); ok {
			r.Metrics["over_drift"] = drift
		}
		if !mkt.IsLive {
			r.Tags = append(r.Tags, "market:prematch")
		}
	} else {
		r.Tags = append(r.Tags, "market:none")
	}

	if m.ShotsLast15 != nil {
		r.Metrics["shots_last_15"] = float64(*m.ShotsLast15)
	}
	if m.XGLast15 != nil {
		r.Metrics["xg_last_15"] = *m.XGLast15
	}
	if age, ok := m.DataAge(now); ok {
		r.Metrics["data_age_s"] = age.Seconds()
	}
	r.Tags = append(r.Tags, fmt.Sprintf("action:%s", sig.Action))
	return r
}
