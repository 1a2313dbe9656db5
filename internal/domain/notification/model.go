package notification

import (
	"strings"
	"time"

	"github.com/scorewatch/scorewatch/internal/domain/event"
)

const (
	TypeMatchStarted = "match_started"
	TypeFullTime     = "full_time"
	TypeScore        = "score"
	TypeReminder     = "reminder"
)

const (
	minDisplay = 5 * time.Second
	maxDisplay = 12 * time.Second
)

// Notification is one pending toast. Immutable once enqueued; consumed
// exactly once.
type Notification struct {
	League      string      `json:"league"`
	Home        string      `json:"home"`
	Away        string      `json:"away"`
	Score       string      `json:"score"`
	Label       string      `json:"label"`
	HomeLogoURL string      `json:"home_logo_url,omitempty"`
	AwayLogoURL string      `json:"away_logo_url,omitempty"`
	Type        string      `json:"type"`
	ScoringSide string      `json:"scoring_side,omitempty"`
	Sport       event.Sport `json:"sport"`
	// Silent suppresses the notification sound; basketball score ticks are
	// always silent.
	Silent bool `json:"silent"`
}

// Text composes the display line shown on the toast surface.
func (n Notification) Text() string {
	parts := make([]string, 0, 4)
	if n.League != "" {
		parts = append(parts, n.League)
	}
	if n.Home != "" || n.Away != "" {
		matchup := n.Home + " - " + n.Away
		if n.Score != "" {
			matchup += " " + n.Score
		}
		parts = append(parts, matchup)
	}
	if n.Label != "" {
		parts = append(parts, n.Label)
	}
	return strings.Join(parts, " | ")
}

// DisplayDuration scales with text length, clamped to 5-12 seconds.
func (n Notification) DisplayDuration() time.Duration {
	d := time.Duration(len(n.Text())) * 150 * time.Millisecond
	if d < minDisplay {
		return minDisplay
	}
	if d > maxDisplay {
		return maxDisplay
	}
	return d
}

// Priority reports whether the notification pre-empts the queue backlog.
// Soccer is the designated priority sport.
func (n Notification) Priority() bool {
	return n.Sport == event.SportSoccer
}
