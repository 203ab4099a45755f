// Package feed defines the upstream collaborators of the signal engine and
// an Evaluator that ties one poll together: snapshot, odds, strength,
// signal.
package feed

import (
	"context"
	"errors"
	"fmt"

	"github.com/phenomenon0/latesignal/pkg/football/match"
	"github.com/phenomenon0/latesignal/pkg/football/odds"
	"github.com/phenomenon0/latesignal/pkg/football/signal"
)

// ErrNoFetcher is returned when Evaluate is called without a fixture source.
var ErrNoFetcher = errors.New("no fixture fetcher configured")

// FixtureFetcher returns the current snapshot of a fixture, derived from the
// provider's fixture, statistics and events responses.
type FixtureFetcher interface {
	Snapshot(ctx context.Context, fixtureID int64) (match.Snapshot, error)
}

// StrengthLookup returns the standings view for a pairing.
type StrengthLookup interface {
	Strength(ctx context.Context, homeTeam, awayTeam string) (*match.Strength, error)
}

// OddsFetcher returns the raw live-odds payload of a fixture.
type OddsFetcher interface {
	LiveOdds(ctx context.Context, fixtureID int64) (odds.Payload, error)
}

// MarketMemory carries the previous market per fixture between polls so
// line movement can be measured. Remembering nil forgets it.
type MarketMemory interface {
	PreviousMarket(fixtureID int64) *match.Market
	RememberMarket(fixtureID int64, m *match.Market)
}

// Input is everything known about a fixture at one poll. Market wins over
// Odds when both are set; Strength wins over the team-name lookup.
type Input struct {
	Snapshot match.Snapshot
	Market   *match.Market
	Odds     *odds.Payload
	Strength *match.Strength
	HomeTeam string
	AwayTeam string
}

// Result is a computed signal plus what was resolved on the way.
type Result struct {
	Signal   signal.Signal
	Odds     *odds.Summary
	Market   *match.Market
	Strength *match.Strength
	// Warnings lists collaborator failures that were degraded to absent data.
	Warnings []string
}

// Evaluator runs the signal path. Every collaborator is optional.
type Evaluator struct {
	Engine    *signal.Engine
	Fixtures  FixtureFetcher
	Odds      OddsFetcher
	Strengths StrengthLookup
	Markets   MarketMemory
}

// Evaluate fetches the fixture and its odds, then computes the signal.
func (e *Evaluator) Evaluate(ctx context.Context, fixtureID int64, homeTeam, awayTeam string) (Result, error) {
	if e.Fixtures == nil {
		return Result{}, ErrNoFetcher
	}
	snap, err := e.Fixtures.Snapshot(ctx, fixtureID)
	if err != nil {
		return Result{}, fmt.Errorf("fetching fixture %d: %w", fixtureID, err)
	}

	in := Input{Snapshot: snap, HomeTeam: homeTeam, AwayTeam: awayTeam}
	var warnings []string
	if e.Odds != nil {
		payload, err := e.Odds.LiveOdds(ctx, fixtureID)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("odds: %v", err))
		} else {
			in.Odds = &payload
		}
	}

	res := e.Compute(ctx, in)
	res.Warnings = append(warnings, res.Warnings...)
	return res, nil
}

// Compute resolves odds and strength for in and computes the signal. Missing
// or failing collaborators degrade to absent data, never to an error.
func (e *Evaluator) Compute(ctx context.Context, in Input) Result {
	var res Result
	fixtureID := in.Snapshot.FixtureID

	var prev *match.Market
	if e.Markets != nil {
		prev = e.Markets.PreviousMarket(fixtureID)
	}

	res.Market = in.Market
	if res.Market == nil && in.Odds != nil {
		summary := odds.Aggregate(*in.Odds)
		res.Odds = &summary
		res.Market = summary.Market(prev, true)
	} else if res.Market != nil && prev != nil && res.Market.PrevOverOdds == 0 && prev.OULine == res.Market.OULine {
		m := *res.Market
		m.PrevOverOdds, m.PrevUnderOdds = prev.OverOdds, prev.UnderOdds
		res.Market = &m
	}
	if e.Markets != nil {
		// A poll without a market breaks the drift chain.
		e.Markets.RememberMarket(fixtureID, res.Market)
	}

	res.Strength = in.Strength
	if res.Strength == nil && e.Strengths != nil && in.HomeTeam != "" && in.AwayTeam != "" {
		s, err := e.Strengths.Strength(ctx, in.HomeTeam, in.AwayTeam)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("strength: %v", err))
		} else {
			res.Strength = s
		}
	}

	engine := e.Engine
	if engine == nil {
		engine = signal.NewEngine()
	}
	res.Signal = engine.Compute(in.Snapshot, res.Market, res.Strength)
	return res
}
