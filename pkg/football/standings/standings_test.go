package standings

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
strong_threshold: 75
teams:
  - name: Manchester City FC
    short: MCI
    aliases: [Man City]
    league: epl
    strength: 92
  - name: Manchester United FC
    short: MUN
    aliases: [Man Utd]
    league: epl
    strength: 71
  - name: Atlético Madrid
    short: ATM
    league: la_liga
    strength: 84
  - name: Girona
    league: la_liga
    rank: 4
  - name: Cádiz CF
    league: la_liga
    rank: 2
`

func loadSample(t *testing.T) *Table {
	t.Helper()
	tbl := NewTable(0)
	require.NoError(t, tbl.Load(strings.NewReader(sampleYAML)))
	return tbl
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Manchester City FC", "manchester city"},
		{"  Atlético   Madrid ", "atletico madrid"},
		{"AFC Bournemouth", "bournemouth"},
		{"Cádiz CF", "cadiz"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeName(tt.in))
		})
	}
}

func TestTable_Load(t *testing.T) {
	tbl := loadSample(t)

	assert.Equal(t, 5, tbl.TeamCount())
	assert.Equal(t, 75.0, tbl.Threshold())
	assert.False(t, tbl.LoadedAt().IsZero())
	assert.Len(t, tbl.League("la_liga"), 3)
}

func TestTable_LoadRejectsBadRows(t *testing.T) {
	tbl := NewTable(0)
	err := tbl.Load(strings.NewReader("teams:\n  - name: X\n    strength: 140\n"))
	assert.Error(t, err)

	err = tbl.Load(strings.NewReader("teams:\n  - league: epl\n"))
	assert.Error(t, err)

	err = tbl.Load(strings.NewReader("teams: [unterminated"))
	assert.Error(t, err)
}

func TestTable_Find(t *testing.T) {
	tbl := loadSample(t)

	tests := []struct {
		query string
		want  string
		found bool
	}{
		{"Manchester City", "Manchester City FC", true},
		{"man city", "Manchester City FC", true},
		{"MUN", "Manchester United FC", true},
		{"Man Utd", "Manchester United FC", true},
		{"Atletico Madrid", "Atlético Madrid", true},
		{"Cadiz", "Cádiz CF", true},
		{"Arsenal", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			team, ok := tbl.Find(tt.query)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, team.Name)
		})
	}
}

func TestTable_FindPartial(t *testing.T) {
	tbl := loadSample(t)
	tbl.Add(
		Team{Name: "Real Sociedad", League: "la_liga", Strength: 74},
		Team{Name: "Real Madrid", League: "la_liga", Strength: 90},
		Team{Name: "Bilbao", League: "la_liga", Strength: 70},
	)

	tests := []struct {
		query string
		want  string
		found bool
	}{
		{"Manchester City Women", "Manchester City FC", true},
		{"Real Sociedad B", "Real Sociedad", true},
		{"Atletico", "Atlético Madrid", true},
		{"Sociedad", "Real Sociedad", true},
		{"a", "", false},
		{"Real", "", false},
		{"Manchester", "", false},
		{"Girona Bilbao", "", false},
		{"Madri", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			team, ok := tbl.Find(tt.query)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, team.Name)
		})
	}
}

func TestTable_DerivesStrengthFromRank(t *testing.T) {
	tbl := loadSample(t)

	cadiz, ok := tbl.Find("Cadiz")
	require.True(t, ok)
	assert.InDelta(t, 100*2.0/3, cadiz.Strength, 1e-9)

	girona, ok := tbl.Find("Girona")
	require.True(t, ok)
	assert.Zero(t, girona.Strength, "rank beyond league size is left alone")
}

func TestTable_Strength(t *testing.T) {
	tbl := loadSample(t)
	ctx := context.Background()

	s, err := tbl.Strength(ctx, "Man Utd", "Manchester City")
	require.NoError(t, err)
	assert.Equal(t, 71.0, s.HomeStrength)
	assert.Equal(t, 92.0, s.AwayStrength)
	assert.False(t, s.IsHomeStrong)
	assert.True(t, s.IsAwayStrong)
	assert.InDelta(t, 21, s.StrengthGap, 1e-9)
	assert.Equal(t, -1, s.StrongSide())

	_, err = tbl.Strength(ctx, "Arsenal", "Manchester City")
	assert.ErrorIs(t, err, ErrTeamNotFound)
	_, err = tbl.Strength(ctx, "Manchester City", "Chelsea")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestTable_StrengthForFixture(t *testing.T) {
	tbl := loadSample(t)

	s, err := tbl.StrengthForFixture(context.Background(), "Atlético Madrid vs Cádiz CF")
	require.NoError(t, err)
	assert.True(t, s.IsHomeStrong)

	_, err = tbl.StrengthForFixture(context.Background(), "Atlético Madrid")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestSplitFixture(t *testing.T) {
	tests := []struct {
		in         string
		home, away string
		ok         bool
	}{
		{"Arsenal vs Chelsea", "Arsenal", "Chelsea", true},
		{"Arsenal vs. Chelsea", "Arsenal", "Chelsea", true},
		{"Arsenal v Chelsea", "Arsenal", "Chelsea", true},
		{"Arsenal - Chelsea", "Arsenal", "Chelsea", true},
		{"Arsenal", "", "", false},
	}
	for _, tt := range tests {
		home, away, ok := SplitFixture(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.home, home)
		assert.Equal(t, tt.away, away)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	tbl, err := LoadFile(path, 60)
	require.NoError(t, err)
	assert.Equal(t, 5, tbl.TeamCount())
	assert.Equal(t, 75.0, tbl.Threshold(), "file threshold wins")

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), 0)
	assert.Error(t, err)
}

func TestLoadFile_Threshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "standings.yaml")
	doc := "teams:\n  - name: Leeds United\n    strength: 65\n  - name: Hull City\n    strength: 40\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	tbl, err := LoadFile(path, 60)
	require.NoError(t, err)
	assert.Equal(t, 60.0, tbl.Threshold())
	s, err := tbl.Strength(context.Background(), "Leeds United", "Hull City")
	require.NoError(t, err)
	assert.True(t, s.IsHomeStrong)

	tbl, err = LoadFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultStrongThreshold, tbl.Threshold())
	s, err = tbl.Strength(context.Background(), "Leeds United", "Hull City")
	require.NoError(t, err)
	assert.False(t, s.IsHomeStrong)
}
