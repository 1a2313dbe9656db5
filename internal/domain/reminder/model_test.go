package reminder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	r := Reminder{MatchName: " Arsenal vs Spurs ", TriggerAt: 1767225600}
	assert.Equal(t, "Arsenal vs Spurs@1767225600", r.Key())
}

func TestDue(t *testing.T) {
	now := time.Unix(1000, 0)

	assert.True(t, Reminder{TriggerAt: 999}.Due(now))
	assert.True(t, Reminder{TriggerAt: 1000}.Due(now))
	assert.False(t, Reminder{TriggerAt: 1001}.Due(now))
	assert.False(t, Reminder{TriggerAt: 0}.Due(now), "zero trigger never fires")
}

func TestDedup(t *testing.T) {
	items := []Reminder{
		{MatchName: "a", TriggerAt: 1, Label: "first"},
		{MatchName: "a", TriggerAt: 1, Label: "second"},
		{MatchName: "a", TriggerAt: 2},
		{MatchName: "b", TriggerAt: 1},
	}

	got := Dedup(items)

	assert.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Label)
	assert.Empty(t, Dedup(nil))
}
