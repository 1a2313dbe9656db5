package event

import "strings"

type Sport string

const (
	SportSoccer     Sport = "soccer"
	SportBasketball Sport = "basketball"
	SportFootball   Sport = "football"
	SportHockey     Sport = "hockey"
	SportBaseball   Sport = "baseball"
	SportTennis     Sport = "tennis"
	SportCricket    Sport = "cricket"
	SportRugby      Sport = "rugby"
	SportGolf       Sport = "golf"
	SportRacing     Sport = "racing"
	SportCombat     Sport = "combat"
)

// sportKeywords maps league-URL fragments to sports. Order matters: soccer
// must win over the bare "football" fragment in soccer league paths.
var sportKeywords = []struct {
	keyword string
	sport   Sport
}{
	{"soccer", SportSoccer},
	{"racing", SportRacing},
	{"f1", SportRacing},
	{"nascar", SportRacing},
	{"indycar", SportRacing},
	{"golf", SportGolf},
	{"tennis", SportTennis},
	{"mma", SportCombat},
	{"ufc", SportCombat},
	{"boxing", SportCombat},
	{"cricket", SportCricket},
	{"rugby", SportRugby},
	{"basketball", SportBasketball},
	{"nba", SportBasketball},
	{"wnba", SportBasketball},
	{"hockey", SportHockey},
	{"nhl", SportHockey},
	{"baseball", SportBaseball},
	{"mlb", SportBaseball},
	{"football", SportFootball},
	{"nfl", SportFootball},
}

// ClassifyLeagueURL derives the sport from a league endpoint URL. Unknown
// URLs fall back to the default team-sport path (soccer semantics).
func ClassifyLeagueURL(leagueURL string) Sport {
	lowered := strings.ToLower(leagueURL)
	for _, item := range sportKeywords {
		if strings.Contains(lowered, item.keyword) {
			return item.sport
		}
	}
	return SportSoccer
}

// Individual reports whether the sport has no team concept; logo derivation
// is skipped for these.
func (s Sport) Individual() bool {
	switch s {
	case SportRacing, SportGolf, SportCombat:
		return true
	default:
		return false
	}
}

// NamedScorer reports whether goal notifications for the sport carry a
// scorer name looked up from scoring details. Basketball and American
// football use synthetic delta text instead.
func (s Sport) NamedScorer() bool {
	switch s {
	case SportBasketball, SportFootball:
		return false
	default:
		return true
	}
}
