package monitor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scorewatch/scorewatch/internal/domain/event"
	"github.com/scorewatch/scorewatch/internal/domain/notification"
	"github.com/scorewatch/scorewatch/internal/platform/logging"
)

// GoalFlag marks a match that just scored, used by snapshot consumers to
// highlight the scoring side. Flags expire 60 seconds after creation via a
// janitor sweep, not a precise timer.
type GoalFlag struct {
	Team string    `json:"team"`
	At   time.Time `json:"at"`
}

type scoreMark struct {
	home int
	away int
}

// reconciler diffs incoming events against their stored predecessors and
// derives notifications. It keeps a private last-score memory per match,
// separate from the event store: the store is overwritten on every pass
// while the memory only advances when a score notification is actually
// emitted or confirmed absent.
type reconciler struct {
	logger       *logging.Logger
	maxDeferrals int
	goalFlagTTL  time.Duration
	now          func() time.Time

	scoreMemory map[string]scoreMark
	deferrals   map[string]int
	goalFlags   map[string]GoalFlag
}

func newReconciler(logger *logging.Logger, maxDeferrals int, goalFlagTTL time.Duration) *reconciler {
	if maxDeferrals <= 0 {
		maxDeferrals = 4
	}
	if goalFlagTTL <= 0 {
		goalFlagTTL = time.Minute
	}
	return &reconciler{
		logger:       logger,
		maxDeferrals: maxDeferrals,
		goalFlagTTL:  goalFlagTTL,
		now:          time.Now,
		scoreMemory:  make(map[string]scoreMark),
		deferrals:    make(map[string]int),
		goalFlags:    make(map[string]GoalFlag),
	}
}

// isChanged is the cheap field-subset equality test: state, competitor
// count, and every competitor's score string.
func isChanged(prev *event.Event, next event.Event) bool {
	if prev == nil {
		return true
	}
	if prev.State != next.State {
		return true
	}
	if len(prev.Competitors) != len(next.Competitors) {
		return true
	}
	for i := range next.Competitors {
		if prev.Competitors[i].Score != next.Competitors[i].Score {
			return true
		}
	}
	return false
}

// apply runs transition and score-delta logic for one incoming event. The
// caller overwrites the store entry unconditionally regardless of the
// changed result, so derived logo fields stay fresh. A pending score
// deferral forces the diff pass even when the stored record matches the
// incoming one: the store already holds the new score, only the memory
// still trails it.
func (r *reconciler) apply(prev *event.Event, next event.Event) ([]notification.Notification, bool) {
	changed := isChanged(prev, next)
	if !changed && !r.scorePending(next) {
		return nil, false
	}

	var out []notification.Notification
	if prev != nil {
		switch {
		case prev.State == event.StatePre && next.State == event.StateIn:
			out = append(out, r.buildNotification(next, notification.TypeMatchStarted, "KICK OFF", ""))
		case prev.State == event.StateIn && next.State == event.StatePost:
			out = append(out, r.buildNotification(next, notification.TypeFullTime, "FULL TIME", ""))
		}
	}

	out = append(out, r.scoreNotifications(next)...)
	if next.Finished() {
		delete(r.scoreMemory, next.ID)
		delete(r.deferrals, next.ID)
	}

	return out, changed || len(out) > 0
}

// scorePending reports whether the last-score memory still trails the
// incoming live score, i.e. a notification was deferred waiting on scorer
// detail and must be re-evaluated this pass.
func (r *reconciler) scorePending(next event.Event) bool {
	last, seen := r.scoreMemory[next.ID]
	if !seen || !next.Live() {
		return false
	}
	home, away := next.Home(), next.Away()
	if home == nil || away == nil {
		return false
	}
	newHome, okH := parseScore(home.Score)
	newAway, okA := parseScore(away.Score)
	if !okH || !okA {
		return false
	}
	return newHome != last.home || newAway != last.away
}

func (r *reconciler) scoreNotifications(next event.Event) []notification.Notification {
	home, away := next.Home(), next.Away()
	if home == nil || away == nil {
		return nil
	}
	newHome, okH := parseScore(home.Score)
	newAway, okA := parseScore(away.Score)
	if !okH || !okA {
		return nil
	}

	last, seen := r.scoreMemory[next.ID]
	if !seen || !next.Live() {
		// Establish or refresh the baseline without notifying: first
		// sighting, or a non-live pass where deltas do not apply.
		r.scoreMemory[next.ID] = scoreMark{home: newHome, away: newAway}
		return nil
	}

	homeDelta := newHome - last.home
	awayDelta := newAway - last.away
	if homeDelta <= 0 && awayDelta <= 0 {
		// Unchanged or corrected downward: track it, nothing to announce.
		r.scoreMemory[next.ID] = scoreMark{home: newHome, away: newAway}
		return nil
	}

	generic := false
	if next.Sport.NamedScorer() && len(next.ScoringPlays) < newHome+newAway {
		// Scorer name not yet published upstream: hold the notification and
		// keep the old memory so the next pass re-detects the same delta.
		if r.deferrals[next.ID] < r.maxDeferrals {
			r.deferrals[next.ID]++
			r.logger.Debug("score notification deferred, scorer not yet available",
				"event_id", next.ID, "attempt", r.deferrals[next.ID])
			return nil
		}
		generic = true
	}

	var out []notification.Notification
	if homeDelta > 0 {
		out = append(out, r.scoreNotification(next, "home", homeDelta, generic))
	}
	if awayDelta > 0 {
		out = append(out, r.scoreNotification(next, "away", awayDelta, generic))
	}

	r.scoreMemory[next.ID] = scoreMark{home: newHome, away: newAway}
	delete(r.deferrals, next.ID)
	return out
}

func (r *reconciler) scoreNotification(ev event.Event, side string, delta int, generic bool) notification.Notification {
	label, silent := scoreLabel(ev, delta, generic)
	n := r.buildNotification(ev, notification.TypeScore, label, side)
	n.Silent = silent
	r.goalFlags[ev.ID] = GoalFlag{Team: side, At: r.now()}
	return n
}

// scoreLabel formats the delta text per sport. Basketball ticks over too
// often for a sound; American football maps point deltas to play names; the
// default path names the latest scorer with the match clock.
func scoreLabel(ev event.Event, delta int, generic bool) (string, bool) {
	switch ev.Sport {
	case event.SportBasketball:
		return fmt.Sprintf("+%d POINTS", delta), true
	case event.SportFootball:
		switch delta {
		case 6:
			return "TOUCHDOWN!", false
		case 3:
			return "FIELD GOAL", false
		case 1:
			return "EXTRA POINT", false
		case 2:
			return "SAFETY/2PT", false
		default:
			return fmt.Sprintf("SCORE (+%d)", delta), false
		}
	}

	if generic || len(ev.ScoringPlays) == 0 {
		return "Goal", false
	}
	latest := ev.ScoringPlays[len(ev.ScoringPlays)-1]
	label := strings.TrimSpace("GOAL! " + strings.TrimSpace(latest.Athlete+" "+latest.Clock))
	return label, false
}

func (r *reconciler) buildNotification(ev event.Event, kind, label, side string) notification.Notification {
	n := notification.Notification{
		League:      ev.LeagueName,
		Label:       label,
		Type:        kind,
		ScoringSide: side,
		Sport:       ev.Sport,
	}
	if home := ev.Home(); home != nil {
		n.Home = home.Name
		n.HomeLogoURL = home.LogoURL
	}
	if away := ev.Away(); away != nil {
		n.Away = away.Name
		n.AwayLogoURL = away.LogoURL
	}
	if n.Home != "" && n.Away != "" {
		homeScore, awayScore := "", ""
		if home := ev.Home(); home != nil {
			homeScore = home.Score
		}
		if away := ev.Away(); away != nil {
			awayScore = away.Score
		}
		if homeScore != "" || awayScore != "" {
			n.Score = homeScore + " - " + awayScore
		}
	}
	return n
}

// sweepGoalFlags drops expired flags and reports whether anything changed.
func (r *reconciler) sweepGoalFlags() bool {
	cutoff := r.now().Add(-r.goalFlagTTL)
	changed := false
	for id, flag := range r.goalFlags {
		if flag.At.Before(cutoff) {
			delete(r.goalFlags, id)
			changed = true
		}
	}
	return changed
}

// forget drops all per-match state for an evicted event ID.
func (r *reconciler) forget(id string) {
	delete(r.scoreMemory, id)
	delete(r.deferrals, id)
	delete(r.goalFlags, id)
}

func (r *reconciler) flags() map[string]GoalFlag {
	out := make(map[string]GoalFlag, len(r.goalFlags))
	for id, flag := range r.goalFlags {
		out[id] = flag
	}
	return out
}

func parseScore(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
