// Package scenario classifies a late-match snapshot into exactly one
// scenario tag using an ordered rule table.
package scenario

import (
	"github.com/phenomenon0/latesignal/pkg/football/match"
)

// Tag is the closed set of match scenarios.
type Tag string

const (
	OverSprint    Tag = "OVER_SPRINT"
	StrongBehind  Tag = "STRONG_BEHIND"
	DeadlockBreak Tag = "DEADLOCK_BREAK"
	WeakDefend    Tag = "WEAK_DEFEND"
	Blowout       Tag = "BLOWOUT"
	BalancedLate  Tag = "BALANCED_LATE"
)

// Tags lists every scenario tag.
var Tags = []Tag{OverSprint, StrongBehind, DeadlockBreak, WeakDefend, Blowout, BalancedLate}

const (
	blowoutGoalDiff    = 3
	strongBehindMinGap = 10.0
	strongDrawXGLead   = 0.5
	deadlockMinute     = 70
	deadlockDebtMinute = 75
	deadlockDebt       = 1.5
	overSprintDebt     = 1.0
	overSprintShots    = 20
	overSprintXG       = 2.0
)

// Input is what every rule sees.
type Input struct {
	Match    match.Snapshot
	Strength *match.Strength
}

// Rule pairs a predicate with the tag it selects.
type Rule struct {
	Name  string
	Tag   Tag
	Match func(in Input) bool
}

// Rules is evaluated top to bottom; the first matching rule wins. Blowout
// sits first so no later rule can override a decided game.
var Rules = []Rule{
	{Name: "blowout", Tag: Blowout, Match: isBlowout},
	{Name: "strong_trailing", Tag: StrongBehind, Match: strongTrailing},
	{Name: "strong_drawing_xg_lead", Tag: StrongBehind, Match: strongDrawingWithXGLead},
	{Name: "strong_leading", Tag: WeakDefend, Match: strongLeading},
	{Name: "goalless_late", Tag: DeadlockBreak, Match: goallessLate},
	{Name: "low_scoring_debt", Tag: DeadlockBreak, Match: lowScoringWithDebt},
	{Name: "xg_debt", Tag: OverSprint, Match: xgDebt},
	{Name: "high_volume", Tag: OverSprint, Match: highVolume},
}

// Classify returns the scenario tag for the snapshot. strength may be nil.
func Classify(m match.Snapshot, strength *match.Strength) Tag {
	tag, _ := Explain(m, strength)
	return tag
}

// Explain is Classify plus the name of the rule that fired ("default" when
// none did).
func Explain(m match.Snapshot, strength *match.Strength) (Tag, string) {
	in := Input{Match: m, Strength: strength}
	for _, r := range Rules {
		if r.Match(in) {
			return r.Tag, r.Name
		}
	}
	return BalancedLate, "default"
}

func isBlowout(in Input) bool {
	return in.Match.AbsGoalDiff() >= blowoutGoalDiff
}

// strongDiff returns the goal difference from the strong side's point of
// view; ok is false when there is no single strong side.
func strongDiff(in Input) (diff int, ok bool) {
	side := in.Strength.StrongSide()
	if side == 0 {
		return 0, false
	}
	return side * in.Match.GoalDiff(), true
}

func strongTrailing(in Input) bool {
	diff, ok := strongDiff(in)
	return ok && diff < 0 && in.Strength.StrengthGap >= strongBehindMinGap
}

func strongDrawingWithXGLead(in Input) bool {
	diff, ok := strongDiff(in)
	if !ok || diff != 0 {
		return false
	}
	lead := in.Match.XG.Home - in.Match.XG.Away
	if in.Strength.StrongSide() < 0 {
		lead = -lead
	}
	return lead > strongDrawXGLead
}

func strongLeading(in Input) bool {
	diff, ok := strongDiff(in)
	return ok && diff > 0
}

func goallessLate(in Input) bool {
	return in.Match.TotalGoals() == 0 && in.Match.Minute >= deadlockMinute
}

func lowScoringWithDebt(in Input) bool {
	m := in.Match
	return m.TotalGoals() <= 1 && m.XGDebt() >= deadlockDebt && m.Minute >= deadlockDebtMinute
}

func xgDebt(in Input) bool {
	return in.Match.XGDebt() >= overSprintDebt
}

func highVolume(in Input) bool {
	return in.Match.TotalShots() >= overSprintShots && in.Match.TotalXG() >= overSprintXG
}
