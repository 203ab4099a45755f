package odds

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenomenon0/latesignal/pkg/football/match"
)

func boolPtr(b bool) *bool { return &b }

func ou(line, over, under string) []Value {
	return []Value{
		{Value: "Over", Odd: LooseString(over), Handicap: LooseString(line)},
		{Value: "Under", Odd: LooseString(under), Handicap: LooseString(line)},
	}
}

func totals(values ...[]Value) Payload {
	var all []Value
	for _, v := range values {
		all = append(all, v...)
	}
	return Payload{FixtureID: 77, Odds: []Bet{{ID: 36, Name: "Over/Under Line", Values: all}}}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertNullDec(t *testing.T, want string, got decimal.NullDecimal) {
	t.Helper()
	if want == "" {
		assert.False(t, got.Valid, "want null, got %s", got.Decimal)
		return
	}
	require.True(t, got.Valid, "want %s, got null", want)
	assert.Truef(t, dec(want).Equal(got.Decimal), "want %s, got %s", want, got.Decimal)
}

func lines(t Table) []string {
	out := make([]string, 0, len(t.AllLines))
	for _, l := range t.AllLines {
		out = append(out, l.Line.String())
	}
	return out
}

func TestResolveOddsLine_Empty(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
	}{
		{"no entries", Payload{}},
		{"no totals market", Payload{Odds: []Bet{{Name: "Fulltime Result", Values: []Value{{Value: "Home", Odd: "2.1"}}}}}},
		{"no parseable line", totals([]Value{
			{Value: "Over", Odd: "1.9", Handicap: "n/a"},
			{Value: "Under", Odd: "1.9"},
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := ResolveOddsLine(tt.payload)
			assert.Equal(t, StatusEmpty, tbl.FetchStatus)
			assert.True(t, tbl.IsEmpty())
			assert.False(t, tbl.MainLine.Valid)
			assert.False(t, tbl.MainOver.Valid)
			assert.False(t, tbl.Over25.Valid)
			assert.Empty(t, tbl.AllLines)
		})
	}
}

func TestResolveOddsLine_FallbackOrder(t *testing.T) {
	tests := []struct {
		name     string
		payload  Payload
		wantMain string
	}{
		{"2.5 first", totals(ou("1.5", "1.3", "3.4"), ou("2.5", "1.9", "1.9"), ou("2", "1.6", "2.3")), "2.5"},
		{"2.0 when 2.5 and 2.25 absent", totals(ou("1.5", "1.3", "3.4"), ou("2.0", "1.6", "2.3"), ou("3.5", "2.9", "1.4")), "2"},
		{"2.25 before 2.0", totals(ou("2", "1.6", "2.3"), ou("2.25", "1.75", "2.05")), "2.25"},
		{"1.75 before 1.5", totals(ou("1.5", "1.3", "3.4"), ou("1.75", "1.45", "2.7")), "1.75"},
		{"none of the fallback lines", totals(ou("0.5", "1.1", "6.0"), ou("3.5", "2.9", "1.4")), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := ResolveOddsLine(tt.payload)
			assert.Equal(t, StatusSuccess, tbl.FetchStatus)
			assertNullDec(t, tt.wantMain, tbl.MainLine)
			assert.NotEmpty(t, tbl.AllLines)
		})
	}
}

func TestResolveOddsLine_MainMarkerWins(t *testing.T) {
	marked := ou("2", "1.62", "2.25")
	marked[0].Main = boolPtr(true)
	p := totals(ou("2.5", "1.95", "1.85"), marked)

	tbl := ResolveOddsLine(p)

	assertNullDec(t, "2", tbl.MainLine)
	assertNullDec(t, "1.62", tbl.MainOver)
	assertNullDec(t, "2.25", tbl.MainUnder)
	assertNullDec(t, "1.95", tbl.Over25)

	for _, l := range tbl.AllLines {
		assert.Equal(t, l.Line.Equal(dec("2")), l.IsMain, "line %s", l.Line)
	}
}

func TestResolveOddsLine_MainMarkerFirstInPayloadOrder(t *testing.T) {
	a := ou("3", "2.2", "1.65")
	a[1].Main = boolPtr(true)
	b := ou("2.5", "1.9", "1.9")
	b[0].Main = boolPtr(true)

	tbl := ResolveOddsLine(totals(a, b))
	assertNullDec(t, "3", tbl.MainLine)
}

func TestResolveOddsLine_FalseMarkerIgnored(t *testing.T) {
	a := ou("2", "1.6", "2.3")
	a[0].Main = boolPtr(false)
	tbl := ResolveOddsLine(totals(a, ou("2.5", "1.9", "1.9")))
	assertNullDec(t, "2.5", tbl.MainLine)
}

func TestResolveOddsLine_SuspendedExcluded(t *testing.T) {
	suspended := ou("2.5", "1.9", "1.9")
	suspended[0].Suspended = true
	suspended[1].Suspended = true
	suspended[0].Main = boolPtr(true)

	tbl := ResolveOddsLine(totals(suspended, ou("1.5", "1.3", "3.4"), ou("3.5", "2.9", "1.4")))

	assert.Equal(t, StatusSuccess, tbl.FetchStatus)
	assert.False(t, tbl.Over25.Valid)
	assert.False(t, tbl.Under25.Valid)
	assertNullDec(t, "1.5", tbl.MainLine)
	assert.Equal(t, []string{"1.5", "3.5"}, lines(tbl))
}

func TestResolveOddsLine_AllSuspended(t *testing.T) {
	v := ou("2.5", "1.9", "1.9")
	v[0].Suspended, v[1].Suspended = true, true

	tbl := ResolveOddsLine(totals(v))

	assert.Equal(t, StatusSuccess, tbl.FetchStatus)
	assert.False(t, tbl.MainLine.Valid)
	assert.Empty(t, tbl.AllLines)
}

func TestResolveOddsLine_LineParsing(t *testing.T) {
	p := totals(
		[]Value{
			{Value: "Over 3.5", Odd: "2.80"},
			{Value: "Under 3.5", Odd: "1.42"},
			{Value: "Over", Odd: "1.75", Handicap: "2,2.5"},
			{Value: "Under", Odd: "2.05", Handicap: "2,2.5"},
			{Value: "Over", Odd: "1.10", Handicap: "abc"},
			{Value: "Over 1.5", Odd: "1.25", Handicap: "+1.5"},
		},
	)

	tbl := ResolveOddsLine(p)

	assert.Equal(t, []string{"1.5", "2.25", "3.5"}, lines(tbl))
	assertNullDec(t, "2.25", tbl.MainLine)
	assertNullDec(t, "1.75", tbl.MainOver)
	assertNullDec(t, "2.80", tbl.Over35)
	assertNullDec(t, "1.42", tbl.Under35)
	assertNullDec(t, "1.25", tbl.Over15)
	assert.False(t, tbl.Under15.Valid)
}

func TestResolveOddsLine_FirstPriceWins(t *testing.T) {
	p := totals(ou("2.5", "1.90", "1.90"), ou("2.5", "1.70", "2.10"))
	tbl := ResolveOddsLine(p)

	require.Len(t, tbl.AllLines, 1)
	assertNullDec(t, "1.90", tbl.AllLines[0].Over)
	assertNullDec(t, "1.90", tbl.AllLines[0].Under)
}

func TestResolveOddsLine_Sorted(t *testing.T) {
	p := totals(ou("4.5", "4.0", "1.2"), ou("0.5", "1.05", "9"), ou("2.75", "2.0", "1.8"), ou("1", "1.2", "4"))
	tbl := ResolveOddsLine(p)
	assert.Equal(t, []string{"0.5", "1", "2.75", "4.5"}, lines(tbl))
}

func TestResolveOddsLine_IgnoresOtherTotals(t *testing.T) {
	p := Payload{Odds: []Bet{
		{Name: "1st Half Over/Under", Values: ou("2.5", "3.1", "1.3")},
		{Name: "Home Team Total", Values: ou("2.5", "4.0", "1.2")},
		{Name: "Over/Under", Values: ou("2.5", "1.9", "1.9")},
	}}
	tbl := ResolveOddsLine(p)
	assertNullDec(t, "1.9", tbl.Over25)
	assert.Len(t, tbl.AllLines, 1)
}

func TestPayload_UnmarshalLooseFields(t *testing.T) {
	raw := `{
		"fixture_id": 1035,
		"odds": [{
			"id": 36,
			"name": "Over/Under Line",
			"values": [
				{"value": "Over", "odd": "1.85", "handicap": "2.5", "main": true, "suspended": false},
				{"value": "Under", "odd": 1.95, "handicap": 2.5, "main": null, "suspended": false},
				{"value": "Over", "odd": "2.60", "handicap": null, "suspended": true}
			]
		}]
	}`
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	require.Len(t, p.Odds, 1)
	require.Len(t, p.Odds[0].Values, 3)

	v := p.Odds[0].Values
	assert.True(t, v[0].IsMain())
	assert.False(t, v[1].IsMain())
	assert.Equal(t, LooseString("1.95"), v[1].Odd)
	assert.Equal(t, LooseString("2.5"), v[1].Handicap)
	assert.Equal(t, LooseString(""), v[2].Handicap)

	tbl := ResolveOddsLine(p)
	assertNullDec(t, "2.5", tbl.MainLine)
	assertNullDec(t, "1.95", tbl.MainUnder)

	out, err := json.Marshal(tbl)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"fetch_status":"SUCCESS"`)
	assert.Contains(t, string(out), `"over_1_5":null`)
}

func TestAggregate(t *testing.T) {
	p := Payload{FixtureID: 9, Odds: []Bet{
		{Name: "Fulltime Result", Values: []Value{
			{Value: "Home", Odd: "2.10"},
			{Value: "Draw", Odd: "3.30", Suspended: true},
			{Value: "Draw", Odd: "3.25"},
			{Value: "Away", Odd: "3.60"},
		}},
		{Name: "Asian Handicap", Values: []Value{
			{Value: "Home", Odd: "1.50", Handicap: "-1"},
			{Value: "Away", Odd: "2.55", Handicap: "1"},
			{Value: "Home", Odd: "1.95", Handicap: "-0.25"},
			{Value: "Away", Odd: "1.90", Handicap: "0.25"},
		}},
		{Name: "Over/Under Line", Values: ou("2.5", "1.88", "1.92")},
	}}

	s := Aggregate(p)

	assert.Equal(t, int64(9), s.FixtureID)
	assertNullDec(t, "2.10", s.MatchWinner.Home)
	assertNullDec(t, "3.25", s.MatchWinner.Draw)
	assertNullDec(t, "3.60", s.MatchWinner.Away)
	assertNullDec(t, "-0.25", s.AsianHandicap.Line)
	assertNullDec(t, "1.95", s.AsianHandicap.Home)
	assertNullDec(t, "1.90", s.AsianHandicap.Away)
	assertNullDec(t, "2.5", s.OverUnder.MainLine)

	m := s.Market(nil, true)
	require.NotNil(t, m)
	assert.InDelta(t, 1.88, m.OverOdds, 1e-9)
	assert.InDelta(t, 2.5, m.OULine, 1e-9)
	assert.InDelta(t, 3.25, m.WinDraw, 1e-9)
	assert.InDelta(t, -0.25, m.AsianHandicapLine, 1e-9)
	assert.True(t, m.IsLive)
}

func TestAggregate_AsianHandicapMainMarker(t *testing.T) {
	p := Payload{Odds: []Bet{{Name: "Asian Handicap", Values: []Value{
		{Value: "Home", Odd: "1.95", Handicap: "-0.25"},
		{Value: "Away", Odd: "1.90", Handicap: "0.25"},
		{Value: "Home", Odd: "1.50", Handicap: "-1", Main: boolPtr(true)},
		{Value: "Away", Odd: "2.55", Handicap: "1"},
	}}}}
	ah := Aggregate(p).AsianHandicap
	assertNullDec(t, "-1", ah.Line)
}

func TestTable_Market(t *testing.T) {
	tbl := ResolveOddsLine(totals(ou("2.5", "1.80", "2.00")))

	first := tbl.Market(nil, true)
	require.NotNil(t, first)
	assert.Zero(t, first.PrevOverOdds)

	moved := ResolveOddsLine(totals(ou("2.5", "1.65", "2.20")))
	second := moved.Market(first, true)
	require.NotNil(t, second)
	assert.InDelta(t, 1.80, second.PrevOverOdds, 1e-9)
	drift, ok := second.OverDrift()
	assert.True(t, ok)
	assert.InDelta(t, 0.15, drift, 1e-9)

	newLine := ResolveOddsLine(totals(ou("2.25", "1.70", "2.10")))
	third := newLine.Market(second, true)
	require.NotNil(t, third)
	assert.Zero(t, third.PrevOverOdds)
	assert.InDelta(t, 2.25, third.OULine, 1e-9)

	unmarked := ResolveOddsLine(totals(ou("3.5", "2.40", "1.55")))
	assert.Nil(t, unmarked.Market(third, true), "no main line without a marker or fallback line")

	assert.Nil(t, ResolveOddsLine(Payload{}).Market(&match.Market{OverOdds: 2}, true))
}
