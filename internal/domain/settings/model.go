package settings

import (
	"strings"

	"github.com/scorewatch/scorewatch/internal/domain/reminder"
)

// League is one configured scoreboard source.
type League struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Settings is the disk-persisted user configuration: selected sources,
// discovery and filter modes, reminders, and theme fields the engine carries
// opaquely for presentation layers.
type Settings struct {
	League           League   `json:"league"`
	CustomLeagues    []League `json:"custom_leagues,omitempty"`
	CustomLeagueMode bool     `json:"custom_league_mode"`
	// DiscoveryEnabled gates live polling and goal/score notifications.
	DiscoveryEnabled bool `json:"discovery_enabled"`
	SoundEnabled     bool `json:"sound_enabled"`
	// FilterLive restricts served snapshots to in-progress matches.
	FilterLive bool                `json:"filter_live"`
	Theme      map[string]any      `json:"theme,omitempty"`
	Reminders  []reminder.Reminder `json:"reminders,omitempty"`
}

// Default returns the configuration used when no settings file exists yet.
func Default() Settings {
	return Settings{
		League: League{
			Name: "Premier League",
			URL:  "https://site.api.espn.com/apis/site/v2/sports/soccer/eng.1/scoreboard",
		},
		DiscoveryEnabled: true,
		SoundEnabled:     true,
	}
}

// Normalize trims league fields and deduplicates reminders. Theme entries
// pass through untouched.
func Normalize(s Settings) Settings {
	s.League.Name = strings.TrimSpace(s.League.Name)
	s.League.URL = strings.TrimSpace(s.League.URL)

	if len(s.CustomLeagues) > 0 {
		cleaned := make([]League, 0, len(s.CustomLeagues))
		for _, item := range s.CustomLeagues {
			item.Name = strings.TrimSpace(item.Name)
			item.URL = strings.TrimSpace(item.URL)
			if item.URL == "" {
				continue
			}
			cleaned = append(cleaned, item)
		}
		s.CustomLeagues = cleaned
	}

	s.Reminders = reminder.Dedup(s.Reminders)
	return s
}

// ActiveLeagues resolves which sources a poll cycle fetches.
func (s Settings) ActiveLeagues() []League {
	if s.CustomLeagueMode && len(s.CustomLeagues) > 0 {
		return s.CustomLeagues
	}
	if s.League.URL == "" {
		return nil
	}
	return []League{s.League}
}
