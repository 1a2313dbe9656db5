package monitor

import (
	"sync"
	"testing"
	"time"

	"github.com/scorewatch/scorewatch/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type snapshotRecorder struct {
	mu    sync.Mutex
	seen  [][]event.Event
	calls int
}

func (r *snapshotRecorder) listen(snapshot []event.Event) {
	r.mu.Lock()
	r.seen = append(r.seen, snapshot)
	r.calls++
	r.mu.Unlock()
}

func (r *snapshotRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func (r *snapshotRecorder) last() []event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return nil
	}
	return r.seen[len(r.seen)-1]
}

func TestListenerBusImmediateDelivery(t *testing.T) {
	bus := newListenerBus(300 * time.Millisecond)
	rec := &snapshotRecorder{}
	bus.subscribe(rec.listen)

	bus.publish([]event.Event{{ID: "1"}})
	assert.Equal(t, 1, rec.count())
}

func TestListenerBusDebouncesBurst(t *testing.T) {
	bus := newListenerBus(50 * time.Millisecond)
	rec := &snapshotRecorder{}
	bus.subscribe(rec.listen)

	// Multi-league responses landing in quick succession: the first fires
	// directly, the rest collapse into one deferred delivery carrying the
	// latest snapshot.
	bus.publish([]event.Event{{ID: "1"}})
	bus.publish([]event.Event{{ID: "2"}})
	bus.publish([]event.Event{{ID: "3"}})
	assert.Equal(t, 1, rec.count())

	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	last := rec.last()
	require.Len(t, last, 1)
	assert.Equal(t, "3", last[0].ID)

	// No trailing third delivery.
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 2, rec.count())
}

func TestListenerBusNilListenerIgnored(t *testing.T) {
	bus := newListenerBus(time.Millisecond)
	bus.subscribe(nil)
	bus.publish(nil)
}

func TestListenerBusStopDropsPending(t *testing.T) {
	bus := newListenerBus(100 * time.Millisecond)
	rec := &snapshotRecorder{}
	bus.subscribe(rec.listen)

	bus.publish([]event.Event{{ID: "1"}})
	bus.publish([]event.Event{{ID: "2"}})
	bus.stop()

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}
