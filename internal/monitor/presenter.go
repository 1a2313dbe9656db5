package monitor

import (
	"context"
	"time"

	"github.com/scorewatch/scorewatch/internal/domain/notification"
	"github.com/scorewatch/scorewatch/internal/platform/logging"
)

// Presenter is the display surface a notification is handed to. Present
// blocks for the toast's lifetime and returns once it has been dismissed;
// an error means the surface could not be opened and the item should be
// retried.
type Presenter interface {
	Present(ctx context.Context, item notification.Notification) error
}

// LogPresenter writes notifications to the log and sleeps out the display
// window. It is the default sink when no webhook is configured.
type LogPresenter struct {
	logger *logging.Logger
	// HoldDisplay keeps the computed display duration; tests turn it off.
	HoldDisplay bool
}

func NewLogPresenter(logger *logging.Logger) *LogPresenter {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogPresenter{
		logger:      logger,
		HoldDisplay: true,
	}
}

func (p *LogPresenter) Present(ctx context.Context, item notification.Notification) error {
	p.logger.InfoContext(ctx, "notification",
		"type", item.Type,
		"text", item.Text(),
		"sport", string(item.Sport),
		"silent", item.Silent,
	)

	if !p.HoldDisplay {
		return nil
	}
	timer := time.NewTimer(item.DisplayDuration())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return nil
	case <-timer.C:
		return nil
	}
}
