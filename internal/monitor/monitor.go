package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scorewatch/scorewatch/internal/domain/event"
	"github.com/scorewatch/scorewatch/internal/domain/notification"
	"github.com/scorewatch/scorewatch/internal/domain/reminder"
	"github.com/scorewatch/scorewatch/internal/domain/settings"
	"github.com/scorewatch/scorewatch/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

// Status strings surfaced to snapshot consumers. The worst outcome of any
// failure is a persistent error status and stale data, never a stopped loop.
const (
	StatusLoading         = "loading"
	StatusOK              = "ok"
	StatusConnectionError = "connection error"
	StatusParseError      = "parse error"
)

const maxConcurrentFetches = 4

// Fetcher returns the raw scoreboard body for one league endpoint.
type Fetcher interface {
	FetchScoreboard(ctx context.Context, url string) ([]byte, error)
}

// Normalizer parses one league payload into event records.
type Normalizer interface {
	Normalize(raw []byte, leagueName, leagueURL string) ([]event.Event, error)
}

// SnapshotStore persists the event list across restarts. Save may coalesce
// writes; Flush always writes.
type SnapshotStore interface {
	Load(ctx context.Context) ([]event.Event, error)
	Save(ctx context.Context, items []event.Event) error
	Flush(ctx context.Context, items []event.Event) error
}

// SettingsStore persists user settings and reminders.
type SettingsStore interface {
	Load(ctx context.Context) (settings.Settings, error)
	Save(ctx context.Context, s settings.Settings) error
}

type Config struct {
	FastInterval   time.Duration // poll interval with live matches, default 15s
	SlowInterval   time.Duration // poll interval without, default 60s
	DequeueGrace   time.Duration
	RetryDelay     time.Duration
	DebounceWindow time.Duration
	GoalFlagTTL    time.Duration
	MaxDeferrals   int
	Logger         *logging.Logger
}

// Monitor is the polling/reconciliation engine: it owns the event store,
// the reminder list and the notification queue. External components read
// snapshots and call mutators; they never touch shared state directly.
type Monitor struct {
	cfg        Config
	fetcher    Fetcher
	normalizer Normalizer
	snapshots  SnapshotStore
	settings   SettingsStore
	presenter  Presenter
	logger     *logging.Logger

	queue *notificationQueue
	bus   *listenerBus
	recon *reconciler

	wake chan struct{}

	mu         sync.Mutex
	store      map[string]event.Event
	sorted     []event.Event
	prefs      settings.Settings
	status     string
	generation uint64
	sequence   uint64
	lastSeq    map[string]uint64
	misses     map[string]int

	runOnce sync.Once
	done    chan struct{}
}

func New(cfg Config, fetcher Fetcher, normalizer Normalizer, snapshots SnapshotStore, settingsStore SettingsStore, presenter Presenter) (*Monitor, error) {
	if fetcher == nil || normalizer == nil {
		return nil, fmt.Errorf("fetcher and normalizer are required")
	}
	if snapshots == nil || settingsStore == nil {
		return nil, fmt.Errorf("snapshot and settings stores are required")
	}
	if presenter == nil {
		presenter = NewLogPresenter(cfg.Logger)
	}
	if cfg.FastInterval <= 0 {
		cfg.FastInterval = 15 * time.Second
	}
	if cfg.SlowInterval <= 0 {
		cfg.SlowInterval = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Monitor{
		cfg:        cfg,
		fetcher:    fetcher,
		normalizer: normalizer,
		snapshots:  snapshots,
		settings:   settingsStore,
		presenter:  presenter,
		logger:     logger,
		queue:      newNotificationQueue(presenter, cfg.DequeueGrace, cfg.RetryDelay, logger),
		bus:        newListenerBus(cfg.DebounceWindow),
		recon:      newReconciler(logger, cfg.MaxDeferrals, cfg.GoalFlagTTL),
		wake:       make(chan struct{}, 1),
		store:      make(map[string]event.Event),
		prefs:      settings.Default(),
		status:     StatusLoading,
		lastSeq:    make(map[string]uint64),
		misses:     make(map[string]int),
		done:       make(chan struct{}),
	}, nil
}

// Start seeds the store from disk and launches the scheduler loop. It
// returns immediately; the loop runs until ctx is canceled.
func (m *Monitor) Start(ctx context.Context) error {
	m.runOnce.Do(func() {
		if prefs, err := m.settings.Load(ctx); err != nil {
			m.logger.WarnContext(ctx, "load settings failed, using defaults", "error", err)
		} else {
			m.mu.Lock()
			m.prefs = settings.Normalize(prefs)
			m.mu.Unlock()
		}

		// Cache read-through: stale data beats an empty screen while the
		// first fetch is in flight. Corruption or absence is non-fatal.
		if items, err := m.snapshots.Load(ctx); err != nil {
			m.logger.WarnContext(ctx, "event snapshot unreadable, starting empty", "error", err)
		} else if len(items) > 0 {
			m.mu.Lock()
			for _, item := range items {
				m.store[item.ID] = item
			}
			m.rebuildSortedLocked()
			m.mu.Unlock()
		}

		m.queue.start(ctx)
		m.queue.setEnabled(m.Settings().DiscoveryEnabled)
		go m.run(ctx)
	})
	return nil
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)
	defer m.bus.stop()
	defer m.queue.close()

	// First cycle immediately so the UI is not waiting out a full interval.
	if m.shouldRun() {
		m.tick(ctx)
	}

	for {
		if !m.shouldRun() {
			// Idle until a settings mutation re-arms the scheduler.
			select {
			case <-ctx.Done():
				m.flushSnapshot()
				return
			case <-m.wake:
				continue
			}
		}

		timer := time.NewTimer(m.nextInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			m.flushSnapshot()
			return
		case <-m.wake:
			timer.Stop()
		case <-timer.C:
		}

		if m.shouldRun() {
			m.tick(ctx)
		}
	}
}

// shouldRun is the scheduler's run condition: live discovery on, or at
// least one pending reminder to evaluate.
func (m *Monitor) shouldRun() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs.DiscoveryEnabled || len(m.prefs.Reminders) > 0
}

func (m *Monitor) nextInterval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.store {
		if item.Live() {
			return m.cfg.FastInterval
		}
	}
	return m.cfg.SlowInterval
}

func (m *Monitor) tick(ctx context.Context) {
	ctx, span := startSpan(ctx, "monitor.Monitor.tick")
	defer span.End()

	m.evaluateReminders(ctx)

	if m.recon.sweepGoalFlags() {
		m.logger.DebugContext(ctx, "expired goal flags swept")
	}

	// Fetching is gated separately from the scheduler's run condition: a
	// loop kept alive only by reminders does not poll.
	if m.Settings().DiscoveryEnabled {
		m.fetchCycle(ctx)
	}
}

type leagueBatch struct {
	league   settings.League
	events   []event.Event
	fetchErr error
	parseErr error
}

func (m *Monitor) fetchCycle(ctx context.Context) {
	ctx, span := startSpan(ctx, "monitor.Monitor.fetchCycle")
	defer span.End()

	m.mu.Lock()
	leagues := m.prefs.ActiveLeagues()
	gen := m.generation
	m.sequence++
	seq := m.sequence
	m.mu.Unlock()
	if len(leagues) == 0 {
		return
	}

	p := pool.NewWithResults[leagueBatch]().
		WithContext(ctx).
		WithMaxGoroutines(maxConcurrentFetches)
	for _, league := range leagues {
		p.Go(func(ctx context.Context) (leagueBatch, error) {
			batch := leagueBatch{league: league}
			raw, err := m.fetcher.FetchScoreboard(ctx, league.URL)
			if err != nil {
				batch.fetchErr = err
				return batch, nil
			}
			items, err := m.normalizer.Normalize(raw, league.Name, league.URL)
			if err != nil {
				batch.parseErr = err
				return batch, nil
			}
			batch.events = items
			return batch, nil
		})
	}
	results, err := p.Wait()
	if err != nil {
		m.logger.WarnContext(ctx, "fetch cycle canceled", "error", err)
		return
	}

	m.applyCycle(ctx, gen, seq, results)
}

func (m *Monitor) applyCycle(ctx context.Context, gen, seq uint64, results []leagueBatch) {
	notifs, snapshot, ok := m.mergeResults(ctx, gen, seq, results)
	if !ok {
		return
	}

	for _, n := range notifs {
		m.queue.push(n)
	}
	m.bus.publish(snapshot)

	if len(snapshot) > 0 {
		if err := m.snapshots.Save(ctx, snapshot); err != nil {
			m.logger.WarnContext(ctx, "persist event snapshot failed", "error", err)
		}
	}
}

// mergeResults applies one cycle's batches under the store lock. Results
// from an abandoned league mode (older generation) are discarded wholesale;
// per event, a record fetched by an older cycle never overwrites one a
// newer cycle already applied.
func (m *Monitor) mergeResults(ctx context.Context, gen, seq uint64, results []leagueBatch) ([]notification.Notification, []event.Event, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen {
		m.logger.DebugContext(ctx, "discarding results from abandoned league mode",
			"generation", gen, "current", m.generation)
		return nil, nil, false
	}

	var notifs []notification.Notification
	fetchFailures, parseFailures, usable := 0, 0, 0
	seen := make(map[string]struct{})
	polled := make(map[string]struct{})
	for _, batch := range results {
		if batch.fetchErr != nil {
			fetchFailures++
			m.logger.WarnContext(ctx, "league fetch failed, keeping cached data",
				"league", batch.league.Name, "error", batch.fetchErr)
			continue
		}
		if batch.parseErr != nil {
			parseFailures++
			m.logger.WarnContext(ctx, "league payload unparseable",
				"league", batch.league.Name, "error", batch.parseErr)
			continue
		}

		polled[batch.league.URL] = struct{}{}
		for _, item := range batch.events {
			// Presence in the feed counts even when the sequence guard
			// skips the apply: the event has not gone missing.
			seen[item.ID] = struct{}{}
			if m.lastSeq[item.ID] > seq {
				continue
			}
			usable++
			prevStored, found := m.store[item.ID]
			var prev *event.Event
			if found {
				prev = &prevStored
			}
			batchNotifs, _ := m.recon.apply(prev, item)
			notifs = append(notifs, batchNotifs...)
			m.store[item.ID] = item
			m.lastSeq[item.ID] = seq
		}
	}
	m.pruneMissingLocked(seen, polled)

	switch {
	case fetchFailures == len(results) && len(results) > 0:
		m.status = StatusConnectionError
	case usable == 0 && parseFailures > 0:
		m.status = StatusParseError
	default:
		m.status = StatusOK
	}

	m.rebuildSortedLocked()
	snapshot := append([]event.Event(nil), m.sorted...)
	return notifs, snapshot, true
}

// evictAfterMisses is how many consecutive healthy polls of an event's
// league may omit the event before it is evicted from the store.
const evictAfterMisses = 3

// pruneMissingLocked evicts events that left the upstream feed. Only a
// league that was polled successfully this cycle counts against its events:
// a fetch or parse failure keeps everything cached. Without eviction a
// vanished match stuck at "in" state would pin the fast poll interval and
// be reseeded from the snapshot on every restart.
func (m *Monitor) pruneMissingLocked(seen, polled map[string]struct{}) {
	for id, item := range m.store {
		if _, ok := seen[id]; ok {
			delete(m.misses, id)
			continue
		}
		if _, ok := polled[item.LeagueURL]; !ok {
			continue
		}
		m.misses[id]++
		if m.misses[id] < evictAfterMisses {
			continue
		}
		m.logger.Debug("evicting event absent from upstream feed", "event_id", id, "league", item.LeagueName)
		delete(m.store, id)
		delete(m.lastSeq, id)
		delete(m.misses, id)
		m.recon.forget(id)
	}
}

func (m *Monitor) rebuildSortedLocked() {
	items := make([]event.Event, 0, len(m.store))
	for _, item := range m.store {
		items = append(items, item)
	}
	event.Sort(items)
	m.sorted = items
}

func (m *Monitor) flushSnapshot() {
	m.mu.Lock()
	snapshot := append([]event.Event(nil), m.sorted...)
	m.mu.Unlock()
	if len(snapshot) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.snapshots.Flush(ctx, snapshot); err != nil {
		m.logger.Warn("final snapshot flush failed", "error", err)
	}
}

// Wait blocks until the scheduler loop has exited.
func (m *Monitor) Wait() {
	<-m.done
}

// Events returns a copy of the sorted snapshot, optionally restricted to
// live matches.
func (m *Monitor) Events(liveOnly bool) []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Event, 0, len(m.sorted))
	for _, item := range m.sorted {
		if liveOnly && !item.Live() {
			continue
		}
		out = append(out, item)
	}
	return out
}

func (m *Monitor) Status() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

func (m *Monitor) GoalFlags() map[string]GoalFlag {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recon.flags()
}

// Settings returns a snapshot of the user configuration. The reminder
// slice is copied: the scheduler compacts the live list on every tick and
// must never share a backing array with a caller.
func (m *Monitor) Settings() settings.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotPrefsLocked()
}

func (m *Monitor) snapshotPrefsLocked() settings.Settings {
	prefs := m.prefs
	prefs.Reminders = append([]reminder.Reminder(nil), m.prefs.Reminders...)
	return prefs
}

// Subscribe registers a snapshot listener on the debounced bus.
func (m *Monitor) Subscribe(fn Listener) {
	m.bus.subscribe(fn)
}

// Refresh requests an immediate poll cycle.
func (m *Monitor) Refresh() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// UpdateSettings replaces the user configuration. Changing the polled
// league set abandons in-flight cycles: their responses are discarded by a
// generation bump instead of racing the new mode's data.
func (m *Monitor) UpdateSettings(ctx context.Context, next settings.Settings) error {
	next = settings.Normalize(next)

	m.mu.Lock()
	prev := m.prefs
	m.prefs = next
	if leagueModeChanged(prev, next) {
		m.generation++
		m.store = make(map[string]event.Event)
		m.lastSeq = make(map[string]uint64)
		m.misses = make(map[string]int)
		m.sorted = nil
		m.status = StatusLoading
	}
	m.mu.Unlock()

	m.queue.setEnabled(next.DiscoveryEnabled)
	if err := m.settings.Save(ctx, next); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	m.Refresh()
	return nil
}

func leagueModeChanged(prev, next settings.Settings) bool {
	if prev.CustomLeagueMode != next.CustomLeagueMode {
		return true
	}
	if prev.League.URL != next.League.URL {
		return true
	}
	if len(prev.CustomLeagues) != len(next.CustomLeagues) {
		return true
	}
	for i := range next.CustomLeagues {
		if prev.CustomLeagues[i].URL != next.CustomLeagues[i].URL {
			return true
		}
	}
	return false
}

// AddReminder registers a one-shot alert; duplicate (match, trigger) pairs
// are rejected.
func (m *Monitor) AddReminder(ctx context.Context, item reminder.Reminder) error {
	if item.MatchName == "" || item.TriggerAt <= 0 {
		return fmt.Errorf("%w: reminder match name and trigger time are required", ErrInvalidInput)
	}

	m.mu.Lock()
	for _, existing := range m.prefs.Reminders {
		if existing.Key() == item.Key() {
			m.mu.Unlock()
			return fmt.Errorf("%w: reminder %q", ErrDuplicate, item.Key())
		}
	}
	m.prefs.Reminders = append(m.prefs.Reminders, item)
	prefs := m.snapshotPrefsLocked()
	m.mu.Unlock()

	if err := m.settings.Save(ctx, prefs); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	m.Refresh()
	return nil
}

// RemoveReminder deletes a reminder by its (match, trigger) key.
func (m *Monitor) RemoveReminder(ctx context.Context, key string) error {
	m.mu.Lock()
	// Compact into a fresh slice: earlier Settings() snapshots may still
	// hold the old backing array.
	kept := make([]reminder.Reminder, 0, len(m.prefs.Reminders))
	removed := false
	for _, item := range m.prefs.Reminders {
		if item.Key() == key {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	m.prefs.Reminders = kept
	prefs := m.snapshotPrefsLocked()
	m.mu.Unlock()

	if !removed {
		return fmt.Errorf("%w: reminder %q", ErrNotFound, key)
	}
	if err := m.settings.Save(ctx, prefs); err != nil {
		return fmt.Errorf("persist settings: %w", err)
	}
	return nil
}

func (m *Monitor) Reminders() []reminder.Reminder {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]reminder.Reminder(nil), m.prefs.Reminders...)
}
