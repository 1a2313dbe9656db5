package reminder

import (
	"strconv"
	"strings"
	"time"
)

// Reminder is a user-scheduled one-shot alert tied to a match start time.
type Reminder struct {
	MatchName   string `json:"match_name"`
	TriggerAt   int64  `json:"trigger_at"`
	League      string `json:"league,omitempty"`
	Label       string `json:"label,omitempty"`
	HomeLogoURL string `json:"home_logo_url,omitempty"`
	AwayLogoURL string `json:"away_logo_url,omitempty"`
	// TuneRef is an optional channel reference for direct tuning when the
	// reminder fires.
	TuneRef string `json:"tune_ref,omitempty"`
}

// Key identifies a reminder; no two reminders may share the same
// (match, trigger) pair.
func (r Reminder) Key() string {
	return strings.TrimSpace(r.MatchName) + "@" + strconv.FormatInt(r.TriggerAt, 10)
}

func (r Reminder) Due(now time.Time) bool {
	return r.TriggerAt > 0 && now.Unix() >= r.TriggerAt
}

// Dedup drops reminders with duplicate keys, keeping the first occurrence.
func Dedup(items []Reminder) []Reminder {
	if len(items) == 0 {
		return items
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]Reminder, 0, len(items))
	for _, item := range items {
		key := item.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}
