package workers

import (
	"context"
	"log/slog"
	"time"
)

// Purger removes notifications older than the retention window.
type Purger interface {
	Purge(retention time.Duration) (int64, error)
}

// NotificationPurger periodically enforces notification retention.
type NotificationPurger struct {
	purger    Purger
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger
}

// NewNotificationPurger creates a new NotificationPurger
func NewNotificationPurger(purger Purger, retention, interval time.Duration, logger *slog.Logger) *NotificationPurger {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationPurger{
		purger:    purger,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}
}

// Run purges once immediately and then on every tick until ctx is done.
func (p *NotificationPurger) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.RunOnce()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification purger stopped")
			return
		case <-ticker.C:
			p.RunOnce()
		}
	}
}

// RunOnce performs a single purge. Errors are logged, never returned.
func (p *NotificationPurger) RunOnce() int64 {
	count, err := p.purger.Purge(p.retention)
	if err != nil {
		p.logger.Error("notification purge failed", slog.Any("error", err))
		return 0
	}
	if count > 0 {
		p.logger.Info("purged expired notifications", slog.Int64("count", count))
	}
	return count
}
