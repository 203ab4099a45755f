package odds

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// FetchStatus tells callers whether a table carries any market.
type FetchStatus string

const (
	StatusSuccess FetchStatus = "SUCCESS"
	// StatusEmpty means no market confirmation is available. It is not an
	// error.
	StatusEmpty FetchStatus = "EMPTY"
)

// Line is one observed over/under line.
type Line struct {
	Line   decimal.Decimal     `json:"line"`
	Over   decimal.NullDecimal `json:"over"`
	Under  decimal.NullDecimal `json:"under"`
	IsMain bool                `json:"is_main"`
}

// Table is the canonical over/under view of one payload.
type Table struct {
	FetchStatus FetchStatus `json:"fetch_status"`

	MainLine  decimal.NullDecimal `json:"main_line"`
	MainOver  decimal.NullDecimal `json:"main_over"`
	MainUnder decimal.NullDecimal `json:"main_under"`

	Over15  decimal.NullDecimal `json:"over_1_5"`
	Under15 decimal.NullDecimal `json:"under_1_5"`
	Over25  decimal.NullDecimal `json:"over_2_5"`
	Under25 decimal.NullDecimal `json:"under_2_5"`
	Over35  decimal.NullDecimal `json:"over_3_5"`
	Under35 decimal.NullDecimal `json:"under_3_5"`

	AllLines []Line `json:"all_lines"`
}

// IsEmpty reports whether the table has no market.
func (t Table) IsEmpty() bool {
	return t.FetchStatus != StatusSuccess
}

// Line returns the observed line equal to l.
func (t Table) Line(l decimal.Decimal) (Line, bool) {
	for _, ln := range t.AllLines {
		if ln.Line.Equal(l) {
			return ln, true
		}
	}
	return Line{}, false
}

// mainFallback is tried in order when no value carries the main marker.
var mainFallback = []decimal.Decimal{
	decimal.RequireFromString("2.5"),
	decimal.RequireFromString("2.25"),
	decimal.RequireFromString("2"),
	decimal.RequireFromString("1.75"),
	decimal.RequireFromString("1.5"),
}

var (
	ref15 = decimal.RequireFromString("1.5")
	ref25 = decimal.RequireFromString("2.5")
	ref35 = decimal.RequireFromString("3.5")
	one   = decimal.NewFromInt(1)
)

var trailingLine = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?(?:\s*,\s*[0-9]+(?:\.[0-9]+)?)?)\s*$`)

// parseLine reads "2.5", "+2.5" or a quarter split "2,2.5" (→ 2.25).
func parseLine(s string) (decimal.Decimal, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+")
	if s == "" {
		return decimal.Decimal{}, false
	}
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return decimal.Decimal{}, false
	}
	sum := decimal.Zero
	for _, p := range parts {
		d, err := decimal.NewFromString(strings.TrimSpace(p))
		if err != nil || d.IsNegative() {
			return decimal.Decimal{}, false
		}
		sum = sum.Add(d)
	}
	return sum.Div(decimal.NewFromInt(int64(len(parts)))), true
}

// lineOf takes the handicap field first, then the trailing number of the
// label ("Over 2.5").
func lineOf(v Value) (decimal.Decimal, bool) {
	if l, ok := parseLine(string(v.Handicap)); ok {
		return l, true
	}
	m := trailingLine.FindStringSubmatch(v.Value)
	if m == nil {
		return decimal.Decimal{}, false
	}
	return parseLine(m[1])
}

// parsePrice accepts decimal odds above 1.
func parsePrice(s LooseString) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(string(s)))
	if err != nil || !d.GreaterThan(one) {
		return decimal.Decimal{}, false
	}
	return d, true
}

type quote struct {
	side  Side
	line  decimal.Decimal
	price decimal.Decimal
	main  bool
}

// totalsQuotes flattens the full-match total goals values in payload order.
// parsed counts values with a usable line before any filtering.
func totalsQuotes(p Payload) (quotes []quote, parsed int) {
	for _, bet := range p.Odds {
		if !isTotalGoals(bet.Name) {
			continue
		}
		for _, v := range bet.Values {
			side := sideOf(v.Value)
			if side == SideNone {
				continue
			}
			line, ok := lineOf(v)
			if !ok {
				continue
			}
			parsed++
			if v.Suspended {
				continue
			}
			price, ok := parsePrice(v.Odd)
			if !ok {
				continue
			}
			quotes = append(quotes, quote{side: side, line: line, price: price, main: v.IsMain()})
		}
	}
	return quotes, parsed
}

func nullDec(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// ResolveOddsLine builds the over/under table for one payload.
//
// The main line is the first line carrying the bookmaker's main marker; if
// none does, the first present line of 2.5, 2.25, 2.0, 1.75, 1.5. Suspended
// values are ignored entirely. Within a line the first price per side wins.
func ResolveOddsLine(p Payload) Table {
	quotes, parsed := totalsQuotes(p)
	if parsed == 0 {
		return Table{FetchStatus: StatusEmpty, AllLines: []Line{}}
	}

	byLine := make(map[string]*Line)
	var (
		order  []string
		marked *decimal.Decimal
	)
	for _, q := range quotes {
		key := q.line.String()
		ln, ok := byLine[key]
		if !ok {
			ln = &Line{Line: q.line}
			byLine[key] = ln
			order = append(order, key)
		}
		switch q.side {
		case SideOver:
			if !ln.Over.Valid {
				ln.Over = nullDec(q.price)
			}
		case SideUnder:
			if !ln.Under.Valid {
				ln.Under = nullDec(q.price)
			}
		}
		if q.main && marked == nil {
			l := q.line
			marked = &l
		}
	}

	t := Table{FetchStatus: StatusSuccess, AllLines: make([]Line, 0, len(order))}

	var main *Line
	if marked != nil {
		main = byLine[marked.String()]
	} else {
		for _, l := range mainFallback {
			if ln, ok := byLine[l.String()]; ok {
				main = ln
				break
			}
		}
	}
	if main != nil {
		main.IsMain = true
		t.MainLine = nullDec(main.Line)
		t.MainOver = main.Over
		t.MainUnder = main.Under
	}

	if ln, ok := byLine[ref15.String()]; ok {
		t.Over15, t.Under15 = ln.Over, ln.Under
	}
	if ln, ok := byLine[ref25.String()]; ok {
		t.Over25, t.Under25 = ln.Over, ln.Under
	}
	if ln, ok := byLine[ref35.String()]; ok {
		t.Over35, t.Under35 = ln.Over, ln.Under
	}

	for _, key := range order {
		t.AllLines = append(t.AllLines, *byLine[key])
	}
	sort.Slice(t.AllLines, func(i, j int) bool {
		return t.AllLines[i].Line.LessThan(t.AllLines[j].Line)
	})
	return t
}
