package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeState(t *testing.T) {
	assert.Equal(t, StateIn, NormalizeState(" IN "))
	assert.Equal(t, StatePost, NormalizeState("post"))
	assert.Equal(t, StatePre, NormalizeState("pre"))
	assert.Equal(t, StatePre, NormalizeState("halftime"))
	assert.Equal(t, StatePre, NormalizeState(""))
}

func TestHomeAwayBySide(t *testing.T) {
	e := Event{Competitors: []Competitor{
		{HomeAway: "away", Name: "Spurs", Score: "1"},
		{HomeAway: "home", Name: "Arsenal", Score: "2"},
	}}

	home := e.Home()
	require.NotNil(t, home)
	assert.Equal(t, "Arsenal", home.Name)

	away := e.Away()
	require.NotNil(t, away)
	assert.Equal(t, "Spurs", away.Name)
}

func TestHomeAwayPositionalFallback(t *testing.T) {
	e := Event{Competitors: []Competitor{
		{Name: "R. Nadal"},
		{Name: "N. Djokovic"},
	}}

	require.NotNil(t, e.Home())
	assert.Equal(t, "R. Nadal", e.Home().Name)
	require.NotNil(t, e.Away())
	assert.Equal(t, "N. Djokovic", e.Away().Name)
}

func TestHomeAwayAbsent(t *testing.T) {
	e := Event{Competitors: []Competitor{{Name: "solo"}}}
	assert.NotNil(t, e.Home())
	assert.Nil(t, e.Away())
	assert.Nil(t, Event{}.Home())
}

func TestSortOrdering(t *testing.T) {
	items := []Event{
		{ID: "live", State: StateIn, Date: "2026-08-30T12:00Z"},
		{ID: "sched-b", State: StatePre, Date: "2026-08-30T15:00Z"},
		{ID: "sched-a", State: StatePre, Date: "2026-08-30T13:00Z"},
		{ID: "done", State: StatePost, Date: "2026-08-30T10:00Z"},
	}

	Sort(items)

	got := make([]string, 0, len(items))
	for _, item := range items {
		got = append(got, item.ID)
	}
	assert.Equal(t, []string{"done", "sched-a", "sched-b", "live"}, got)
}

func TestSortTiebreakers(t *testing.T) {
	items := []Event{
		{ID: "2", State: StateIn, Date: "2026-08-30T12:00Z", LeagueName: "NBA"},
		{ID: "1", State: StateIn, Date: "2026-08-30T12:00Z", LeagueName: "NBA"},
		{ID: "3", State: StateIn, Date: "2026-08-30T12:00Z", LeagueName: "La Liga"},
	}

	Sort(items)

	assert.Equal(t, "3", items[0].ID)
	assert.Equal(t, "1", items[1].ID)
	assert.Equal(t, "2", items[2].ID)
}
