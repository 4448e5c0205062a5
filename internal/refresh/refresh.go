// Package refresh periodically re-reads the budget document so that problems with the
// store show up in the logs even when nobody is using the bot.
package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/m3rciful/budgetbot/core/logger"
	"github.com/m3rciful/budgetbot/internal/docstore"
)

// DefaultInterval is the tick period when none is configured.
const DefaultInterval = 60 * time.Second

// Fetcher reads the current document. *docstore.Gateway implements it.
type Fetcher interface {
	Fetch(ctx context.Context) docstore.Snapshot
}

// Loop fetches the document on a fixed interval.
type Loop struct {
	fetcher  Fetcher
	interval time.Duration
}

// New returns a Loop. A non-positive interval falls back to DefaultInterval.
func New(fetcher Fetcher, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{fetcher: fetcher, interval: interval}
}

// Run ticks until ctx is cancelled. Fetch failures are logged by the gateway and never
// stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	logger.Refresh.InfoContext(ctx, "refresh loop started",
		slog.String("event", "refresh.start"),
		slog.Duration("interval", l.interval),
	)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Refresh.InfoContext(ctx, "refresh loop stopped",
				slog.String("event", "refresh.stop"),
			)
			return ctx.Err()
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	start := time.Now()
	snap := l.fetcher.Fetch(ctx)
	doc := snap.Doc
	if doc == nil {
		return
	}
	logger.Refresh.InfoContext(ctx, "document refreshed",
		slog.String("event", "refresh.tick"),
		slog.Int("categories", len(doc.Categories)),
		slog.Int("transactions", len(doc.Transactions)),
		slog.Int("activities", len(doc.ActivityLog)),
		slog.Duration("duration", logger.Took(start)),
	)
}
