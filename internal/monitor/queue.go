package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/scorewatch/scorewatch/internal/domain/notification"
	"github.com/scorewatch/scorewatch/internal/platform/logging"
)

// notificationQueue serializes toast presentation: FIFO with a front-insert
// override for the priority sport, exactly one active presentation, a short
// grace period between toasts, and recovery when the presenter fails.
type notificationQueue struct {
	presenter  Presenter
	grace      time.Duration
	retryDelay time.Duration
	logger     *logging.Logger

	mu      sync.Mutex
	items   []notification.Notification
	active  bool
	enabled bool
	closed  bool
	ctx     context.Context
}

func newNotificationQueue(presenter Presenter, grace, retryDelay time.Duration, logger *logging.Logger) *notificationQueue {
	if grace <= 0 {
		grace = 500 * time.Millisecond
	}
	if retryDelay <= 0 {
		retryDelay = 10 * time.Second
	}
	return &notificationQueue{
		presenter:  presenter,
		grace:      grace,
		retryDelay: retryDelay,
		logger:     logger,
		enabled:    true,
		ctx:        context.Background(),
	}
}

func (q *notificationQueue) start(ctx context.Context) {
	q.mu.Lock()
	q.ctx = ctx
	q.mu.Unlock()
}

// push enqueues one notification. Priority-sport items pre-empt the backlog
// by going to the front.
func (q *notificationQueue) push(item notification.Notification) {
	q.mu.Lock()
	if !q.enabled || q.closed {
		q.mu.Unlock()
		return
	}
	if item.Priority() {
		q.items = append([]notification.Notification{item}, q.items...)
	} else {
		q.items = append(q.items, item)
	}
	q.mu.Unlock()

	q.dispatch()
}

func (q *notificationQueue) dispatch() {
	q.mu.Lock()
	if q.active || q.closed || !q.enabled || len(q.items) == 0 {
		q.mu.Unlock()
		return
	}
	item := q.items[0]
	q.items = q.items[1:]
	q.active = true
	ctx := q.ctx
	q.mu.Unlock()

	go q.present(ctx, item)
}

func (q *notificationQueue) present(ctx context.Context, item notification.Notification) {
	if err := q.presenter.Present(ctx, item); err != nil {
		q.logger.WarnContext(ctx, "notification presenter failed, retrying later",
			"type", item.Type, "error", err)
		q.mu.Lock()
		q.active = false
		// The failed item goes back to the front so it is retried, not
		// lost; a disable in the meantime drops it with the rest.
		if q.enabled && !q.closed {
			q.items = append([]notification.Notification{item}, q.items...)
		}
		q.mu.Unlock()
		time.AfterFunc(q.retryDelay, q.dispatch)
		return
	}

	time.AfterFunc(q.grace, func() {
		q.mu.Lock()
		q.active = false
		q.mu.Unlock()
		q.dispatch()
	})
}

// setEnabled toggles presentation. Disabling flushes everything pending
// immediately; the active toast, if any, finishes on its own.
func (q *notificationQueue) setEnabled(enabled bool) {
	q.mu.Lock()
	q.enabled = enabled
	if !enabled {
		q.items = nil
	}
	q.mu.Unlock()

	if enabled {
		q.dispatch()
	}
}

func (q *notificationQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *notificationQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
}
