package monitor

import (
	"sync"
	"time"

	"github.com/scorewatch/scorewatch/internal/domain/event"
)

// Listener receives the sorted event snapshot after the store changes.
type Listener func(snapshot []event.Event)

// listenerBus fans snapshots out to subscribers with a debounce window:
// an invocation within 300ms of the previous one is held back, and a single
// deferred delivery with the latest pending snapshot fires once the window
// elapses. This prevents UI thrash when multi-league responses land in
// quick succession.
type listenerBus struct {
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	listeners []Listener
	lastFire  time.Time
	pending   []event.Event
	hasPend   bool
	timer     *time.Timer
}

func newListenerBus(window time.Duration) *listenerBus {
	if window <= 0 {
		window = 300 * time.Millisecond
	}
	return &listenerBus{
		window: window,
		now:    time.Now,
	}
}

func (b *listenerBus) subscribe(fn Listener) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

func (b *listenerBus) publish(snapshot []event.Event) {
	b.mu.Lock()
	now := b.now()
	elapsed := now.Sub(b.lastFire)
	if elapsed >= b.window && b.timer == nil {
		b.lastFire = now
		listeners := append([]Listener(nil), b.listeners...)
		b.mu.Unlock()
		for _, fn := range listeners {
			fn(snapshot)
		}
		return
	}

	// Too soon: remember only the latest snapshot and schedule one deferred
	// delivery for when the window closes.
	b.pending = snapshot
	b.hasPend = true
	if b.timer == nil {
		b.timer = time.AfterFunc(b.window-elapsed, b.fireDeferred)
	}
	b.mu.Unlock()
}

func (b *listenerBus) fireDeferred() {
	b.mu.Lock()
	b.timer = nil
	if !b.hasPend {
		b.mu.Unlock()
		return
	}
	snapshot := b.pending
	b.pending = nil
	b.hasPend = false
	b.lastFire = b.now()
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func (b *listenerBus) stop() {
	b.mu.Lock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.pending = nil
	b.hasPend = false
	b.mu.Unlock()
}
