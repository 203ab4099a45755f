// Package standings resolves team strength from a league table file.
package standings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/phenomenon0/latesignal/pkg/football/match"
)

// DefaultStrongThreshold is the rating at which a side counts as strong.
const DefaultStrongThreshold = 70.0

// ErrTeamNotFound is returned when a name matches no team in the table.
var ErrTeamNotFound = errors.New("team not found")

// Team is one row of the standings file.
type Team struct {
	Name     string   `yaml:"name" json:"name"`
	Short    string   `yaml:"short" json:"short,omitempty"`
	Aliases  []string `yaml:"aliases" json:"aliases,omitempty"`
	League   string   `yaml:"league" json:"league"`
	Rank     int      `yaml:"rank" json:"rank,omitempty"`
	Strength float64  `yaml:"strength" json:"strength"` // 0-100; derived from rank when zero
}

// File is the on-disk standings format.
type File struct {
	StrongThreshold float64 `yaml:"strong_threshold"`
	Teams           []Team  `yaml:"teams"`
}

// Table indexes teams by normalized name and abbreviation.
type Table struct {
	mu        sync.RWMutex
	threshold float64
	byName    map[string]*Team   // normalized name or alias -> Team
	byShort   map[string]*Team   // lowercase abbreviation -> Team
	byLeague  map[string][]*Team // league -> Teams
	loadedAt  time.Time
}

// NewTable creates an empty table. A non-positive threshold selects
// DefaultStrongThreshold.
func NewTable(threshold float64) *Table {
	if threshold <= 0 {
		threshold = DefaultStrongThreshold
	}
	return &Table{
		threshold: threshold,
		byName:    make(map[string]*Team),
		byShort:   make(map[string]*Team),
		byLeague:  make(map[string][]*Team),
	}
}

// LoadFile reads a standings YAML file. threshold is used unless the file
// sets its own strong_threshold.
func LoadFile(path string, threshold float64) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening standings: %w", err)
	}
	defer f.Close()

	t := NewTable(threshold)
	if err := t.Load(f); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return t, nil
}

// Load replaces the table contents with the YAML document in r.
func (t *Table) Load(r io.Reader) error {
	var file File
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return fmt.Errorf("decoding standings: %w", err)
	}
	for i, team := range file.Teams {
		if strings.TrimSpace(team.Name) == "" {
			return fmt.Errorf("team %d: missing name", i)
		}
		if team.Strength < 0 || team.Strength > 100 {
			return fmt.Errorf("team %q: strength %.1f outside 0-100", team.Name, team.Strength)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if file.StrongThreshold > 0 {
		t.threshold = file.StrongThreshold
	}
	t.byName = make(map[string]*Team)
	t.byShort = make(map[string]*Team)
	t.byLeague = make(map[string][]*Team)
	t.addLocked(file.Teams)
	t.loadedAt = time.Now()
	return nil
}

// Add indexes teams without clearing existing entries.
func (t *Table) Add(teams ...Team) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addLocked(teams)
}

func (t *Table) addLocked(teams []Team) {
	for i := range teams {
		team := teams[i]
		tp := &team

		t.byName[normalizeName(tp.Name)] = tp
		for _, alias := range tp.Aliases {
			t.byName[normalizeName(alias)] = tp
		}
		if tp.Short != "" {
			t.byShort[strings.ToLower(tp.Short)] = tp
		}
		t.byLeague[tp.League] = append(t.byLeague[tp.League], tp)
	}
	for _, league := range t.byLeague {
		deriveFromRank(league)
	}
}

// deriveFromRank fills missing strengths linearly from league position:
// first place 100, last place 100/n.
func deriveFromRank(league []*Team) {
	n := len(league)
	for _, team := range league {
		if team.Strength == 0 && team.Rank > 0 && team.Rank <= n {
			team.Strength = 100 * float64(n-team.Rank+1) / float64(n)
		}
	}
}

// TeamCount returns the number of distinct teams.
func (t *Table) TeamCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, league := range t.byLeague {
		n += len(league)
	}
	return n
}

// LoadedAt returns when the table was last loaded from a file.
func (t *Table) LoadedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.loadedAt
}

// Threshold returns the strong-side rating threshold.
func (t *Table) Threshold() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.threshold
}

// League returns the teams of a league in file order.
func (t *Table) League(league string) []Team {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Team, 0, len(t.byLeague[league]))
	for _, team := range t.byLeague[league] {
		out = append(out, *team)
	}
	return out
}

// Find resolves a team by name, alias or abbreviation.
func (t *Table) Find(name string) (Team, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if team := t.findBestMatch(name); team != nil {
		return *team, true
	}
	return Team{}, false
}

// Strength returns the strength view for a fixture.
func (t *Table) Strength(_ context.Context, homeTeam, awayTeam string) (*match.Strength, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	home := t.findBestMatch(homeTeam)
	if home == nil {
		return nil, fmt.Errorf("home %q: %w", homeTeam, ErrTeamNotFound)
	}
	away := t.findBestMatch(awayTeam)
	if away == nil {
		return nil, fmt.Errorf("away %q: %w", awayTeam, ErrTeamNotFound)
	}
	return match.NewStrength(home.Strength, away.Strength, t.threshold), nil
}

// StrengthForFixture splits a "Home vs Away" fixture name and looks both
// sides up.
func (t *Table) StrengthForFixture(ctx context.Context, fixture string) (*match.Strength, error) {
	home, away, ok := SplitFixture(fixture)
	if !ok {
		return nil, fmt.Errorf("fixture %q: cannot split into teams: %w", fixture, ErrTeamNotFound)
	}
	return t.Strength(ctx, home, away)
}

// findBestMatch must be called with the read lock held.
func (t *Table) findBestMatch(name string) *Team {
	if team, ok := t.byShort[strings.ToLower(strings.TrimSpace(name))]; ok {
		return team
	}

	normName := normalizeName(name)
	if normName == "" {
		return nil
	}
	if team, ok := t.byName[normName]; ok {
		return team
	}

	for _, suffix := range []string{" united", " city", " town", " hotspur"} {
		if team, ok := t.byName[strings.TrimSuffix(normName, suffix)]; ok {
			return team
		}
	}

	// A known name inside a longer query: the longest key wins, and a tie
	// between different teams is ambiguous.
	var best *Team
	bestLen, tied := 0, false
	for key, team := range t.byName {
		if !containsWords(normName, key) {
			continue
		}
		switch {
		case len(key) > bestLen:
			best, bestLen, tied = team, len(key), false
		case len(key) == bestLen && team != best:
			tied = true
		}
	}
	if best != nil {
		if tied {
			return nil
		}
		return best
	}

	// A short query inside a known name must name exactly one team.
	if len(normName) < minPartialLen {
		return nil
	}
	for key, team := range t.byName {
		if !containsWords(key, normName) {
			continue
		}
		if best != nil && team != best {
			return nil
		}
		best = team
	}
	return best
}

// minPartialLen is the shortest query tried as a fragment of a team name.
const minPartialLen = 4

// containsWords reports whether needle appears in hay on word boundaries.
func containsWords(hay, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(" "+hay+" ", " "+needle+" ")
}

// SplitFixture splits "Arsenal vs Chelsea" style names.
func SplitFixture(fixture string) (home, away string, ok bool) {
	for _, sep := range []string{" vs. ", " vs ", " v. ", " v ", " - "} {
		if idx := strings.Index(fixture, sep); idx > 0 {
			home = strings.TrimSpace(fixture[:idx])
			away = strings.TrimSpace(fixture[idx+len(sep):])
			if home != "" && away != "" {
				return home, away, true
			}
		}
	}
	return "", "", false
}

// normalizeName lowercases, strips accents and club suffixes.
func normalizeName(name string) string {
	name = strings.ToLower(name)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	name, _, _ = transform.String(t, name)

	fields := strings.Fields(name)
	out := fields[:0]
	for _, f := range fields {
		switch f {
		case "fc", "afc", "cf", "sc":
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}
