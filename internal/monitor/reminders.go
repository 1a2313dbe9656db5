package monitor

import (
	"context"
	"time"

	"github.com/scorewatch/scorewatch/internal/domain/notification"
	"github.com/scorewatch/scorewatch/internal/domain/reminder"
)

// evaluateReminders runs at the start of every scheduler tick, before any
// fetching. Each due reminder fires exactly once and is removed; the
// updated list is persisted with the rest of the settings.
func (m *Monitor) evaluateReminders(ctx context.Context) {
	now := time.Now()

	m.mu.Lock()
	if len(m.prefs.Reminders) == 0 {
		m.mu.Unlock()
		return
	}
	var due []reminder.Reminder
	// Fresh slice, not in-place compaction: Settings() snapshots alias the
	// old backing array and must keep reading what they captured.
	kept := make([]reminder.Reminder, 0, len(m.prefs.Reminders))
	for _, item := range m.prefs.Reminders {
		if item.Due(now) {
			due = append(due, item)
			continue
		}
		kept = append(kept, item)
	}
	m.prefs.Reminders = kept
	prefs := m.snapshotPrefsLocked()
	m.mu.Unlock()

	if len(due) == 0 {
		return
	}

	if err := m.settings.Save(ctx, prefs); err != nil {
		m.logger.WarnContext(ctx, "persist settings after reminder firing failed", "error", err)
	}

	for _, item := range due {
		m.fireReminder(ctx, item)
	}
}

// fireReminder presents directly instead of going through the queue:
// reminders must still surface when discovery (and with it the queue) is
// disabled. A failed presentation is logged, not retried; the reminder has
// already been consumed.
func (m *Monitor) fireReminder(ctx context.Context, item reminder.Reminder) {
	label := item.Label
	if label == "" {
		label = "Match starting soon"
	}
	n := notification.Notification{
		League:      item.League,
		Home:        item.MatchName,
		Label:       label,
		HomeLogoURL: item.HomeLogoURL,
		AwayLogoURL: item.AwayLogoURL,
		Type:        notification.TypeReminder,
	}

	go func() {
		if err := m.presenter.Present(ctx, n); err != nil {
			m.logger.WarnContext(ctx, "reminder presentation failed",
				"reminder", item.Key(), "error", err)
		}
	}()

	m.logger.InfoContext(ctx, "reminder fired", "match", item.MatchName, "tune_ref", item.TuneRef)
}
