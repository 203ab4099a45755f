// Package signal computes the late-match signal: a bounded score, a
// confidence figure, a recommended action and the audit trail behind them.
//
// Every function in this package is a pure computation over its inputs.
// State that spans polls (previous prices, last signal) belongs to callers.
package signal

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/phenomenon0/latesignal/pkg/football/scenario"
)

// Action is the recommended action for a snapshot.
type Action string

const (
	ActionBet     Action = "BET"
	ActionPrepare Action = "PREPARE"
	ActionWatch   Action = "WATCH"
	ActionIgnore  Action = "IGNORE"
)

// Actions lists every action, strongest first.
var Actions = []Action{ActionBet, ActionPrepare, ActionWatch, ActionIgnore}

// Phase is the late-match window a minute falls in.
type Phase string

const (
	PhaseInactive Phase = "inactive"
	PhaseWarmup   Phase = "warmup"
	PhaseActive   Phase = "active"
)

const (
	warmupStartMinute = 65
	activeStartMinute = 80
)

// PhaseFor maps a match minute to its phase.
func PhaseFor(minute int) Phase {
	switch {
	case minute < warmupStartMinute:
		return PhaseInactive
	case minute < activeStartMinute:
		return PhaseWarmup
	default:
		return PhaseActive
	}
}

// BaseScore is the score-state component (0–20).
type BaseScore struct {
	Total          float64  `json:"total"`
	GoalDiffPoints float64  `json:"goal_diff_points"`
	OpennessBonus  float64  `json:"openness_bonus"`
	UrgencyBonus   float64  `json:"urgency_bonus"`
	Description    []string `json:"description"`
}

// EdgeScore is the pressure and scenario component (0–30).
type EdgeScore struct {
	Total            float64  `json:"total"`
	PressureIndex    float64  `json:"pressure_index"`
	Momentum         float64  `json:"momentum"`
	XGVelocity       float64  `json:"xg_velocity"`
	ShotQuality      float64  `json:"shot_quality"`
	StrengthGap      float64  `json:"strength_gap"`
	TrailingPressure float64  `json:"trailing_pressure"`
	ScenarioBonus    float64  `json:"scenario_bonus"`
	Windowed         bool     `json:"windowed"`
	Description      []string `json:"description"`
}

// TimingScore is the match-clock component (0–20).
type TimingScore struct {
	Total        float64  `json:"total"`
	Curve        float64  `json:"curve"`
	UrgencyBonus float64  `json:"urgency_bonus"`
	Description  []string `json:"description"`
}

// MarketScore is the bookmaker component (0–20).
type MarketScore struct {
	Total            float64  `json:"total"`
	HasData          bool     `json:"has_data"`
	LineMovement     float64  `json:"line_movement"`
	PriceLevel       float64  `json:"price_level"`
	ConsistencyBonus float64  `json:"consistency_bonus"`
	Description      []string `json:"description"`
}

// QualityScore is the data-quality component (-10..+10).
type QualityScore struct {
	Total          float64  `json:"total"`
	Completeness   float64  `json:"completeness"`
	Freshness      float64  `json:"freshness"`
	AnomalyPenalty float64  `json:"anomaly_penalty"`
	Anomalies      []string `json:"anomalies,omitempty"`
	Description    []string `json:"description"`
}

// ScoreBreakdown holds the five components that sum to the raw score.
type ScoreBreakdown struct {
	Base    BaseScore    `json:"base"`
	Edge    EdgeScore    `json:"edge"`
	Timing  TimingScore  `json:"timing"`
	Market  MarketScore  `json:"market"`
	Quality QualityScore `json:"quality"`
}

// Sum returns the unclamped component total.
func (b ScoreBreakdown) Sum() float64 {
	return b.Base.Total + b.Edge.Total + b.Timing.Total + b.Market.Total + b.Quality.Total
}

// ConfidenceBreakdown holds the confidence sub-scores.
type ConfidenceBreakdown struct {
	Completeness       float64 `json:"completeness"`
	Freshness          float64 `json:"freshness"`
	Consistency        float64 `json:"consistency"`
	MarketConfirmation float64 `json:"market_confirmation"`
	WarmupFactor       float64 `json:"warmup_factor"`
	Total              float64 `json:"total"`
}

// BetPlan is the sizing suggestion attached to BET and PREPARE signals.
type BetPlan struct {
	Market     string          `json:"market"`
	Selection  string          `json:"selection"`
	Line       decimal.Decimal `json:"line"`
	MinOdds    decimal.Decimal `json:"min_odds"`
	StakePct   decimal.Decimal `json:"stake_pct"`
	TTLMinutes int             `json:"ttl_minutes"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// Reasons is the audit trail: tags plus the raw metrics the score saw.
type Reasons struct {
	Tags    []string           `json:"tags"`
	Metrics map[string]float64 `json:"metrics"`
}

// Signal is the engine output for one snapshot.
type Signal struct {
	FixtureID int64 `json:"fixture_id"`
	Minute    int   `json:"minute"`

	Score      float64      `json:"score"`
	Confidence float64      `json:"confidence"`
	Action     Action       `json:"action"`
	Scenario   scenario.Tag `json:"scenario_tag"`
	Rule       string       `json:"scenario_rule"`
	Phase      Phase        `json:"phase"`
	IsWarmup   bool         `json:"is_warmup"`

	PoissonGoalProb float64 `json:"poisson_goal_prob"`

	ScoreBreakdown      ScoreBreakdown      `json:"score_breakdown"`
	ConfidenceBreakdown ConfidenceBreakdown `json:"confidence_breakdown"`
	BetPlan             *BetPlan            `json:"bet_plan,omitempty"`
	Reasons             Reasons             `json:"reasons"`

	ComputedAt time.Time `json:"computed_at"`
}
