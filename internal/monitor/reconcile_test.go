package monitor

import (
	"testing"
	"time"

	"github.com/scorewatch/scorewatch/internal/domain/event"
	"github.com/scorewatch/scorewatch/internal/domain/notification"
	"github.com/scorewatch/scorewatch/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soccerEvent(id, state, homeScore, awayScore string, plays int) event.Event {
	ev := event.Event{
		ID:         id,
		LeagueName: "Premier League",
		Sport:      event.SportSoccer,
		State:      state,
		Competitors: []event.Competitor{
			{HomeAway: "home", Name: "Liverpool", Score: homeScore},
			{HomeAway: "away", Name: "Arsenal", Score: awayScore},
		},
	}
	for i := 0; i < plays; i++ {
		ev.ScoringPlays = append(ev.ScoringPlays, event.ScoringPlay{Athlete: "M. Salah", Clock: "55'"})
	}
	return ev
}

func TestIsChanged(t *testing.T) {
	base := soccerEvent("42", event.StateIn, "1", "0", 1)

	assert.True(t, isChanged(nil, base), "new event is always changed")
	assert.False(t, isChanged(&base, base))

	scoreBump := soccerEvent("42", event.StateIn, "2", "0", 2)
	assert.True(t, isChanged(&base, scoreBump))

	stateFlip := soccerEvent("42", event.StatePost, "1", "0", 1)
	assert.True(t, isChanged(&base, stateFlip))

	// Logo/clock churn alone does not count as changed.
	cosmetic := base
	cosmetic.Clock = "70'"
	assert.False(t, isChanged(&base, cosmetic))
}

func TestReconcilerMatchLifecycle(t *testing.T) {
	r := newReconciler(logging.NewNop(), 4, time.Minute)

	pre := soccerEvent("42", event.StatePre, "0", "0", 0)
	notifs, changed := r.apply(nil, pre)
	require.True(t, changed)
	assert.Empty(t, notifs, "first sighting emits nothing")

	// pre -> in with a goal already on the board.
	live := soccerEvent("42", event.StateIn, "1", "0", 1)
	notifs, changed = r.apply(&pre, live)
	require.True(t, changed)
	require.Len(t, notifs, 2)
	assert.Equal(t, notification.TypeMatchStarted, notifs[0].Type)
	assert.Equal(t, notification.TypeScore, notifs[1].Type)
	assert.Equal(t, "home", notifs[1].ScoringSide)
	assert.Equal(t, "GOAL! M. Salah 55'", notifs[1].Label)
	assert.Equal(t, "1 - 0", notifs[1].Score)

	// Same payload again: unchanged, memory untouched.
	notifs, changed = r.apply(&live, live)
	assert.False(t, changed)
	assert.Empty(t, notifs)
	assert.Equal(t, scoreMark{home: 1, away: 0}, r.scoreMemory["42"])

	// in -> post drops the delta memory for the match.
	done := soccerEvent("42", event.StatePost, "1", "0", 1)
	notifs, changed = r.apply(&live, done)
	require.True(t, changed)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.TypeFullTime, notifs[0].Type)
	_, kept := r.scoreMemory["42"]
	assert.False(t, kept)
}

func TestReconcilerAwayGoal(t *testing.T) {
	r := newReconciler(logging.NewNop(), 4, time.Minute)

	prev := soccerEvent("42", event.StateIn, "1", "0", 1)
	r.apply(nil, prev)

	next := soccerEvent("42", event.StateIn, "1", "1", 2)
	notifs, changed := r.apply(&prev, next)
	require.True(t, changed)
	require.Len(t, notifs, 1)
	assert.Equal(t, "away", notifs[0].ScoringSide)

	flag, ok := r.goalFlags["42"]
	require.True(t, ok)
	assert.Equal(t, "away", flag.Team)
}

func TestReconcilerStalenessGuard(t *testing.T) {
	r := newReconciler(logging.NewNop(), 4, time.Minute)

	prev := soccerEvent("42", event.StateIn, "0", "0", 0)
	r.apply(nil, prev)

	// Score jumped to 2 but only one scoring detail is published yet:
	// hold the notification and keep the old memory. The store is
	// overwritten on the first stale pass, so later passes see an
	// unchanged record and rely on the pending score memory alone.
	stale := soccerEvent("42", event.StateIn, "2", "0", 1)
	stored := prev
	for attempt := 1; attempt <= 4; attempt++ {
		notifs, _ := r.apply(&stored, stale)
		stored = stale
		assert.Empty(t, notifs, "attempt %d", attempt)
		assert.Equal(t, scoreMark{home: 0, away: 0}, r.scoreMemory["42"], "attempt %d", attempt)
	}

	// Fifth pass gives up waiting and emits the generic label.
	notifs, changed := r.apply(&stored, stale)
	require.True(t, changed)
	require.Len(t, notifs, 1)
	assert.Equal(t, "Goal", notifs[0].Label)
	assert.Equal(t, scoreMark{home: 2, away: 0}, r.scoreMemory["42"])
	assert.Zero(t, r.deferrals["42"])
}

func TestReconcilerStalenessGuardClearsWhenDetailArrives(t *testing.T) {
	r := newReconciler(logging.NewNop(), 4, time.Minute)

	prev := soccerEvent("42", event.StateIn, "0", "0", 0)
	r.apply(nil, prev)

	stale := soccerEvent("42", event.StateIn, "1", "0", 0)
	notifs, _ := r.apply(&prev, stale)
	assert.Empty(t, notifs)

	// The detail arrives on a pass whose score strings match the stored
	// record; only the pending memory gets the diff re-run.
	fresh := soccerEvent("42", event.StateIn, "1", "0", 1)
	notifs, changed := r.apply(&stale, fresh)
	require.True(t, changed)
	require.Len(t, notifs, 1)
	assert.Equal(t, "GOAL! M. Salah 55'", notifs[0].Label)
}

func basketballEvent(id, homeScore, awayScore string) event.Event {
	return event.Event{
		ID:    id,
		Sport: event.SportBasketball,
		State: event.StateIn,
		Competitors: []event.Competitor{
			{HomeAway: "home", Name: "Lakers", Score: homeScore},
			{HomeAway: "away", Name: "Celtics", Score: awayScore},
		},
	}
}

func TestReconcilerBasketballDeltaIsSilent(t *testing.T) {
	r := newReconciler(logging.NewNop(), 4, time.Minute)

	prev := basketballEvent("7", "98", "95")
	r.apply(nil, prev)

	next := basketballEvent("7", "101", "95")
	notifs, _ := r.apply(&prev, next)
	require.Len(t, notifs, 1)
	assert.Equal(t, "+3 POINTS", notifs[0].Label)
	assert.True(t, notifs[0].Silent)
}

func footballEvent(id, homeScore, awayScore string) event.Event {
	return event.Event{
		ID:    id,
		Sport: event.SportFootball,
		State: event.StateIn,
		Competitors: []event.Competitor{
			{HomeAway: "home", Name: "Chiefs", Score: homeScore},
			{HomeAway: "away", Name: "Bills", Score: awayScore},
		},
	}
}

func TestReconcilerFootballDeltaText(t *testing.T) {
	cases := []struct {
		prev, next string
		label      string
	}{
		{"0", "6", "TOUCHDOWN!"},
		{"6", "9", "FIELD GOAL"},
		{"9", "10", "EXTRA POINT"},
		{"10", "12", "SAFETY/2PT"},
		{"12", "20", "SCORE (+8)"},
	}

	r := newReconciler(logging.NewNop(), 4, time.Minute)
	prev := footballEvent("9", cases[0].prev, "0")
	r.apply(nil, prev)

	for _, tc := range cases {
		next := footballEvent("9", tc.next, "0")
		notifs, _ := r.apply(&prev, next)
		require.Len(t, notifs, 1, tc.label)
		assert.Equal(t, tc.label, notifs[0].Label)
		assert.False(t, notifs[0].Silent)
		prev = next
	}
}

func TestGoalFlagSweep(t *testing.T) {
	r := newReconciler(logging.NewNop(), 4, time.Minute)
	current := time.Now()
	r.now = func() time.Time { return current }

	prev := soccerEvent("42", event.StateIn, "0", "0", 0)
	r.apply(nil, prev)
	next := soccerEvent("42", event.StateIn, "1", "0", 1)
	r.apply(&prev, next)
	require.Contains(t, r.goalFlags, "42")

	current = current.Add(30 * time.Second)
	assert.False(t, r.sweepGoalFlags(), "flag still inside the window")
	require.Contains(t, r.goalFlags, "42")

	current = current.Add(31 * time.Second)
	assert.True(t, r.sweepGoalFlags())
	assert.Empty(t, r.goalFlags)
}
