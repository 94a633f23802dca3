package score

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownTeam = errors.New("unknown team")
	ErrNoTeams     = errors.New("ledger needs at least one team")
)

type Standing struct {
	Team  string `json:"team"`
	Score int    `json:"score"`
}

// Ledger keeps per-team totals. Scores have no floor, a wrong answer may
// take a team below zero.
type Ledger struct {
	teams  []string
	scores map[string]int
}

func NewLedger(teams []string) (*Ledger, error) {
	if len(teams) == 0 {
		return nil, ErrNoTeams
	}

	l := &Ledger{
		teams:  append([]string(nil), teams...),
		scores: make(map[string]int, len(teams)),
	}
	for _, t := range teams {
		if _, ok := l.scores[t]; ok {
			return nil, fmt.Errorf("team %q registered twice", t)
		}
		l.scores[t] = 0
	}
	return l, nil
}

func (l *Ledger) Has(team string) bool {
	_, ok := l.scores[team]
	return ok
}

func (l *Ledger) Adjust(team string, delta int) error {
	if !l.Has(team) {
		return fmt.Errorf("%w: %q", ErrUnknownTeam, team)
	}
	l.scores[team] += delta
	return nil
}

func (l *Ledger) Score(team string) (int, bool) {
	s, ok := l.scores[team]
	return s, ok
}

// Standings lists the teams in registration order so the display keeps a
// stable layout.
func (l *Ledger) Standings() []Standing {
	standings := make([]Standing, len(l.teams))
	for i, t := range l.teams {
		standings[i] = Standing{Team: t, Score: l.scores[t]}
	}
	return standings
}

// Ranked lists the teams highest score first. Ties keep registration order.
func (l *Ledger) Ranked() []Standing {
	standings := l.Standings()
	sort.SliceStable(standings, func(i, j int) bool {
		return standings[i].Score > standings[j].Score
	})
	return standings
}

func (l *Ledger) Reset() {
	for t := range l.scores {
		l.scores[t] = 0
	}
}
