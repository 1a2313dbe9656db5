package event

import (
	"sort"
	"strings"
)

const (
	StatePre  = "pre"
	StateIn   = "in"
	StatePost = "post"
)

// Event represents one sporting fixture at a snapshot in time.
type Event struct {
	ID         string `json:"id"`
	LeagueName string `json:"league_name"`
	LeagueURL  string `json:"league_url"`
	Sport      Sport  `json:"sport"`
	Name       string `json:"name"`
	State      string `json:"state"`
	Clock      string `json:"clock"`
	// Date is the scheduled kickoff timestamp, ISO8601 UTC.
	Date         string         `json:"date"`
	Competitors  []Competitor   `json:"competitors"`
	ScoringPlays []ScoringPlay  `json:"scoring_plays,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Competitor is one side of a fixture: a team, or a player for individual
// sports.
type Competitor struct {
	HomeAway string `json:"home_away"`
	Name     string `json:"name"`
	Score    string `json:"score"`
	TeamID   string `json:"team_id,omitempty"`
	// LogoURL and LogoID are derived presentation metadata, recomputed on
	// every normalization pass.
	LogoURL string `json:"logo_url,omitempty"`
	LogoID  string `json:"logo_id,omitempty"`
}

// ScoringPlay is one structured scoring detail from the upstream payload.
type ScoringPlay struct {
	Athlete string `json:"athlete,omitempty"`
	Clock   string `json:"clock,omitempty"`
	Team    string `json:"team,omitempty"`
	Text    string `json:"text,omitempty"`
}

func NormalizeState(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case StateIn:
		return StateIn
	case StatePost:
		return StatePost
	default:
		return StatePre
	}
}

func (e Event) Live() bool {
	return e.State == StateIn
}

func (e Event) Finished() bool {
	return e.State == StatePost
}

// Home returns the home-side competitor, or the first competitor when sides
// are positional (tennis), or nil when absent.
func (e Event) Home() *Competitor {
	return e.side("home", 0)
}

func (e Event) Away() *Competitor {
	return e.side("away", 1)
}

func (e Event) side(homeAway string, fallbackIdx int) *Competitor {
	for i := range e.Competitors {
		if strings.EqualFold(e.Competitors[i].HomeAway, homeAway) {
			return &e.Competitors[i]
		}
	}
	if fallbackIdx < len(e.Competitors) {
		return &e.Competitors[fallbackIdx]
	}
	return nil
}

// statePriority ranks states for the cached list ordering. Finished matches
// sort first, then scheduled, then live; this mirrors the historic behavior
// of the system this replaces and is kept intentionally.
func statePriority(state string) int {
	switch state {
	case StatePost:
		return 0
	case StatePre:
		return 1
	case StateIn:
		return 2
	default:
		return 3
	}
}

// Sort orders events by (state priority, date, league name, id), stable and
// deterministic for equal keys.
func Sort(items []Event) {
	sort.SliceStable(items, func(i, j int) bool {
		pi, pj := statePriority(items[i].State), statePriority(items[j].State)
		if pi != pj {
			return pi < pj
		}
		if items[i].Date != items[j].Date {
			return items[i].Date < items[j].Date
		}
		if items[i].LeagueName != items[j].LeagueName {
			return items[i].LeagueName < items[j].LeagueName
		}
		return items[i].ID < items[j].ID
	})
}
