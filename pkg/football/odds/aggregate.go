package odds

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/phenomenon0/latesignal/pkg/football/match"
)

// MatchWinner holds the 1X2 prices.
type MatchWinner struct {
	Home decimal.NullDecimal `json:"home"`
	Draw decimal.NullDecimal `json:"draw"`
	Away decimal.NullDecimal `json:"away"`
}

// AsianHandicap is the chosen handicap line, quoted from the home side.
type AsianHandicap struct {
	Line decimal.NullDecimal `json:"line"`
	Home decimal.NullDecimal `json:"home"`
	Away decimal.NullDecimal `json:"away"`
}

// Summary is the display object for one payload.
type Summary struct {
	FixtureID     int64         `json:"fixture_id"`
	OverUnder     Table         `json:"over_under"`
	MatchWinner   MatchWinner   `json:"match_winner"`
	AsianHandicap AsianHandicap `json:"asian_handicap"`
}

// Aggregate resolves every market the signal path and dashboard care about.
func Aggregate(p Payload) Summary {
	return Summary{
		FixtureID:     p.FixtureID,
		OverUnder:     ResolveOddsLine(p),
		MatchWinner:   matchWinner(p),
		AsianHandicap: asianHandicap(p),
	}
}

func matchWinner(p Payload) MatchWinner {
	var mw MatchWinner
	set := func(dst *decimal.NullDecimal, v Value) {
		if dst.Valid {
			return
		}
		if price, ok := parsePrice(v.Odd); ok {
			*dst = nullDec(price)
		}
	}
	for _, bet := range p.Odds {
		if !isMatchWinner(bet.Name) {
			continue
		}
		for _, v := range bet.Values {
			if v.Suspended {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(v.Value)) {
			case "home", "1":
				set(&mw.Home, v)
			case "draw", "x":
				set(&mw.Draw, v)
			case "away", "2":
				set(&mw.Away, v)
			}
		}
	}
	return mw
}

type ahPair struct {
	line       decimal.Decimal
	home, away decimal.NullDecimal
	main       bool
}

// asianHandicap pairs home and away quotes by handicap size and picks the
// bookmaker's main pair, else the most balanced complete pair.
func asianHandicap(p Payload) AsianHandicap {
	pairs := make(map[string]*ahPair)
	var order []string
	for _, bet := range p.Odds {
		if !isAsianHandicap(bet.Name) {
			continue
		}
		for _, v := range bet.Values {
			if v.Suspended {
				continue
			}
			h, err := decimal.NewFromString(strings.TrimSpace(string(v.Handicap)))
			if err != nil {
				continue
			}
			price, ok := parsePrice(v.Odd)
			if !ok {
				continue
			}
			key := h.Abs().String()
			pair, seen := pairs[key]
			if !seen {
				pair = &ahPair{}
				pairs[key] = pair
				order = append(order, key)
			}
			switch strings.ToLower(strings.TrimSpace(v.Value)) {
			case "home", "1":
				if !pair.home.Valid {
					pair.home = nullDec(price)
					pair.line = h
				}
			case "away", "2":
				if !pair.away.Valid {
					pair.away = nullDec(price)
					if !pair.home.Valid {
						pair.line = h.Neg()
					}
				}
			default:
				continue
			}
			if v.IsMain() {
				pair.main = true
			}
		}
	}

	var best *ahPair
	for _, key := range order {
		pair := pairs[key]
		if !pair.home.Valid || !pair.away.Valid {
			continue
		}
		if pair.main {
			best = pair
			break
		}
		if best == nil || spread(pair).LessThan(spread(best)) {
			best = pair
		}
	}
	if best == nil {
		return AsianHandicap{}
	}
	return AsianHandicap{Line: nullDec(best.line), Home: best.home, Away: best.away}
}

func spread(p *ahPair) decimal.Decimal {
	return p.home.Decimal.Sub(p.away.Decimal).Abs()
}

func floatOf(d decimal.NullDecimal) float64 {
	if !d.Valid {
		return 0
	}
	return d.Decimal.InexactFloat64()
}

// Market builds the signal-path market from the main line. prev is the
// market seen on the previous poll; its prices become the drift baseline
// only when it quoted the same line. It returns nil when there is no main
// over price.
func (t Table) Market(prev *match.Market, live bool) *match.Market {
	if t.IsEmpty() || !t.MainLine.Valid || !t.MainOver.Valid {
		return nil
	}
	m := &match.Market{
		OverOdds:  floatOf(t.MainOver),
		UnderOdds: floatOf(t.MainUnder),
		OULine:    floatOf(t.MainLine),
		IsLive:    live,
	}
	if prev != nil && prev.OULine == m.OULine {
		m.PrevOverOdds = prev.OverOdds
		m.PrevUnderOdds = prev.UnderOdds
	}
	return m
}

// Market is Table.Market plus the 1X2 and Asian handicap prices.
func (s Summary) Market(prev *match.Market, live bool) *match.Market {
	m := s.OverUnder.Market(prev, live)
	if m == nil {
		return nil
	}
	m.WinHome = floatOf(s.MatchWinner.Home)
	m.WinDraw = floatOf(s.MatchWinner.Draw)
	m.WinAway = floatOf(s.MatchWinner.Away)
	m.AsianHandicapLine = floatOf(s.AsianHandicap.Line)
	m.AsianHandicapHome = floatOf(s.AsianHandicap.Home)
	m.AsianHandicapAway = floatOf(s.AsianHandicap.Away)
	return m
}
