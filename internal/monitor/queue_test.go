package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/scorewatch/scorewatch/internal/domain/event"
	"github.com/scorewatch/scorewatch/internal/domain/notification"
	"github.com/scorewatch/scorewatch/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePresenter records presentation order and optionally fails the first
// N attempts.
type fakePresenter struct {
	mu        sync.Mutex
	presented []notification.Notification
	failFirst int
	release   chan struct{}
}

func (p *fakePresenter) Present(ctx context.Context, item notification.Notification) error {
	p.mu.Lock()
	if p.failFirst > 0 {
		p.failFirst--
		p.mu.Unlock()
		return errors.New("display surface unavailable")
	}
	p.presented = append(p.presented, item)
	p.mu.Unlock()

	if p.release != nil {
		<-p.release
	}
	return nil
}

func (p *fakePresenter) order() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.presented))
	for _, item := range p.presented {
		out = append(out, item.Label)
	}
	return out
}

func TestQueuePrioritySportPreemptsBacklog(t *testing.T) {
	presenter := &fakePresenter{release: make(chan struct{})}
	q := newNotificationQueue(presenter, time.Millisecond, time.Millisecond, logging.NewNop())

	// First push goes active immediately and blocks on the presenter.
	q.push(notification.Notification{Label: "hockey-1", Sport: event.SportHockey})
	require.Eventually(t, func() bool { return len(presenter.order()) == 1 }, time.Second, 5*time.Millisecond)

	q.push(notification.Notification{Label: "hockey-2", Sport: event.SportHockey})
	q.push(notification.Notification{Label: "soccer", Sport: event.SportSoccer})
	close(presenter.release)
	presenter.release = nil

	require.Eventually(t, func() bool { return len(presenter.order()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"hockey-1", "soccer", "hockey-2"}, presenter.order())
}

func TestQueueDisableFlushesPending(t *testing.T) {
	presenter := &fakePresenter{release: make(chan struct{})}
	q := newNotificationQueue(presenter, time.Millisecond, time.Millisecond, logging.NewNop())

	q.push(notification.Notification{Label: "active", Sport: event.SportHockey})
	require.Eventually(t, func() bool { return len(presenter.order()) == 1 }, time.Second, 5*time.Millisecond)
	q.push(notification.Notification{Label: "pending-1", Sport: event.SportHockey})
	q.push(notification.Notification{Label: "pending-2", Sport: event.SportHockey})
	require.Equal(t, 2, q.pending())

	q.setEnabled(false)
	assert.Zero(t, q.pending())

	// Items pushed while disabled are dropped outright.
	q.push(notification.Notification{Label: "dropped", Sport: event.SportSoccer})
	assert.Zero(t, q.pending())

	close(presenter.release)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"active"}, presenter.order())
}

func TestQueuePresenterFailureDoesNotWedge(t *testing.T) {
	presenter := &fakePresenter{failFirst: 1}
	q := newNotificationQueue(presenter, time.Millisecond, 10*time.Millisecond, logging.NewNop())

	q.push(notification.Notification{Label: "retry-me", Sport: event.SportHockey})

	// First attempt fails; the active flag resets and a retry lands later.
	require.Eventually(t, func() bool {
		return len(presenter.order()) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"retry-me"}, presenter.order())
}

func TestQueuePresenterFailureRequeuesItem(t *testing.T) {
	presenter := &fakePresenter{failFirst: 1}
	q := newNotificationQueue(presenter, time.Millisecond, 10*time.Millisecond, logging.NewNop())

	q.push(notification.Notification{Label: "goal", Sport: event.SportHockey})
	q.push(notification.Notification{Label: "later", Sport: event.SportHockey})

	// The failed item is re-queued at the front, not dropped: it still
	// presents, and ahead of the backlog.
	require.Eventually(t, func() bool { return len(presenter.order()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"goal", "later"}, presenter.order())
}

func TestQueueSerializesPresentation(t *testing.T) {
	presenter := &fakePresenter{release: make(chan struct{}, 3)}
	q := newNotificationQueue(presenter, time.Millisecond, time.Millisecond, logging.NewNop())

	for _, label := range []string{"a", "b", "c"} {
		q.push(notification.Notification{Label: label, Sport: event.SportHockey})
	}

	presenter.release <- struct{}{}
	presenter.release <- struct{}{}
	presenter.release <- struct{}{}
	require.Eventually(t, func() bool { return len(presenter.order()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, presenter.order())
}
