// Package odds turns a raw live-odds payload into a canonical over/under
// line table and a display-ready aggregate.
package odds

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Payload is one live-odds response for a fixture: every bet market the
// bookmaker is quoting at that instant.
type Payload struct {
	FixtureID int64 `json:"fixture_id"`
	Odds      []Bet `json:"odds"`
}

// Bet is one market with its quoted values.
type Bet struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Values []Value `json:"values"`
}

// Value is one quoted outcome. Odd and Handicap arrive as strings, numbers
// or null depending on the feed.
type Value struct {
	Value     string      `json:"value"`
	Odd       LooseString `json:"odd"`
	Handicap  LooseString `json:"handicap"`
	Main      *bool       `json:"main"`
	Suspended bool        `json:"suspended"`
}

// IsMain reports whether the bookmaker flagged this value as the main line.
func (v Value) IsMain() bool {
	return v.Main != nil && *v.Main
}

// LooseString accepts a JSON string, number or null.
type LooseString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = LooseString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = LooseString(num.String())
	return nil
}

// Side is the over/under side of a value label.
type Side int

const (
	SideNone Side = iota
	SideOver
	SideUnder
)

func sideOf(label string) Side {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(l, "over"):
		return SideOver
	case strings.HasPrefix(l, "under"):
		return SideUnder
	default:
		return SideNone
	}
}

// isTotalGoals reports whether a bet name is the full-match total goals
// market. Half, team and prop totals are excluded.
func isTotalGoals(name string) bool {
	n := strings.ToLower(name)
	for _, skip := range []string{"half", "corner", "card", "home", "away", "team", "asian"} {
		if strings.Contains(n, skip) {
			return false
		}
	}
	return strings.Contains(n, "over/under") || n == "match goals" || n == "total goals" || n == "goals over/under"
}

func isMatchWinner(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return n == "fulltime result" || n == "match winner" || n == "1x2"
}

func isAsianHandicap(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "asian handicap") && !strings.Contains(n, "half") && !strings.Contains(n, "corner")
}
