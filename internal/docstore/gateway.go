package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/budgetbot/core/logger"
	"github.com/m3rciful/budgetbot/internal/ledger"
)

// DefaultUpdateAttempts bounds the re-fetch and re-apply cycles of Update.
const DefaultUpdateAttempts = 3

// Snapshot is a decoded document together with the version it was read at.
type Snapshot struct {
	Doc     *ledger.Document
	Version Version
}

// Gateway reads and writes the budget document through a Store.
type Gateway struct {
	store    Store
	attempts int
	timeout  time.Duration
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithUpdateAttempts sets how many times Update tries before giving up on conflicts.
func WithUpdateAttempts(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.attempts = n
		}
	}
}

// WithTimeout bounds every store call.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// NewGateway wraps store.
func NewGateway(store Store, opts ...Option) *Gateway {
	g := &Gateway{store: store, attempts: DefaultUpdateAttempts}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

// Load reads and decodes the document.
func (g *Gateway) Load(ctx context.Context) (Snapshot, error) {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	content, version, err := g.store.Get(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("docstore: load: %w", err)
	}
	doc, err := ledger.Decode(content)
	if err != nil {
		return Snapshot{}, fmt.Errorf("docstore: decode: %w", err)
	}
	return Snapshot{Doc: doc, Version: version}, nil
}

// Fetch is Load that never fails: errors are logged and an empty document with an empty
// version is returned instead. Callers cannot tell that apart from a new, empty budget.
func (g *Gateway) Fetch(ctx context.Context) Snapshot {
	start := time.Now()
	snap, err := g.Load(ctx)
	if err != nil {
		logger.Store.ErrorContext(ctx, "fetch failed",
			slog.String("event", "store.fetch"),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.Took(start)),
		)
		return Snapshot{Doc: ledger.NewDocument()}
	}
	logger.Store.DebugContext(ctx, "fetched",
		slog.String("event", "store.fetch"),
		slog.String("version", shortVersion(snap.Version)),
		slog.Duration("duration", logger.Took(start)),
	)
	return snap
}

// Save overwrites the stored document if it is still at version. It does not retry;
// a stale version yields ErrConflict.
func (g *Gateway) Save(ctx context.Context, doc *ledger.Document, version Version) error {
	_, err := g.save(ctx, doc, version)
	return err
}

func (g *Gateway) save(ctx context.Context, doc *ledger.Document, version Version) (Version, error) {
	content, err := ledger.Encode(doc)
	if err != nil {
		return "", fmt.Errorf("docstore: encode: %w", err)
	}

	ctx, cancel := g.callContext(ctx)
	defer cancel()

	start := time.Now()
	next, err := g.store.Put(ctx, content, version)
	if err != nil {
		if !errors.Is(err, ErrConflict) {
			err = fmt.Errorf("docstore: save: %w", err)
		}
		return "", err
	}
	logger.Store.InfoContext(ctx, "saved",
		slog.String("event", "store.save"),
		slog.String("version", shortVersion(next)),
		slog.Int("bytes", len(content)),
		slog.Duration("duration", logger.Took(start)),
	)
	return next, nil
}

// Update runs a read-modify-write cycle. mutate is applied to a freshly loaded document;
// when the save hits a newer revision, the document is loaded again and mutate re-applied.
// A mutate error aborts without saving; ErrNoChange aborts without saving and without error.
// The unallocated figure is recomputed before every save.
func (g *Gateway) Update(ctx context.Context, mutate func(*ledger.Document) error) (*ledger.Document, error) {
	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		snap, err := g.Load(ctx)
		if err != nil {
			return nil, err
		}
		if err := mutate(snap.Doc); err != nil {
			if errors.Is(err, ErrNoChange) {
				return snap.Doc, nil
			}
			return nil, err
		}
		snap.Doc.Unallocated = ledger.Unallocated(snap.Doc)

		_, err = g.save(ctx, snap.Doc, snap.Version)
		if err == nil {
			return snap.Doc, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		lastErr = err
		logger.Store.WarnContext(ctx, "version conflict",
			slog.String("event", "store.update"),
			slog.String("status", "retry"),
			slog.Int("attempts", attempt),
		)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("docstore: update gave up after %d attempts: %w", g.attempts, lastErr)
}

func shortVersion(v Version) string {
	return logger.Short(string(v), 12)
}
