// Package app assembles the budget bot from configuration: the document store, the event
// publisher, the conversation dispatcher and the background workers.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	corecmd "github.com/m3rciful/budgetbot/core/cmd"
	coreconfig "github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/core/logger"
	tg "github.com/m3rciful/budgetbot/core/telegram"
	"github.com/m3rciful/budgetbot/core/telegram/router"
	"github.com/m3rciful/budgetbot/core/telegram/state"
	"github.com/m3rciful/budgetbot/internal/bot"
	"github.com/m3rciful/budgetbot/internal/docstore"
	"github.com/m3rciful/budgetbot/internal/events"
	"github.com/m3rciful/budgetbot/internal/present"
	"github.com/m3rciful/budgetbot/internal/refresh"
)

// App holds the wired components of a running bot.
type App struct {
	cfg        *coreconfig.Config
	db         *sqlx.DB
	docs       *docstore.Gateway
	publisher  events.Publisher
	dispatcher *bot.Dispatcher
	registry   *tg.Registry
}

// Options overrides collaborators New would otherwise build from configuration.
type Options struct {
	// DB is the open database for the postgres and sqlite backends. Close closes it.
	DB *sqlx.DB
	// Store replaces the configured backend.
	Store docstore.Store
	// Publisher replaces the AMQP publisher.
	Publisher events.Publisher
}

// NewStore opens the document backend selected by cfg.Store.Backend.
func NewStore(cfg *coreconfig.Config, db *sqlx.DB) (docstore.Store, error) {
	switch cfg.Store.Backend {
	case coreconfig.BackendGist:
		return docstore.NewGistStore(cfg.Store.Gist, cfg.Store.Timeout, tg.BuildTransport())
	case coreconfig.BackendPostgres, coreconfig.BackendSQLite:
		if db == nil {
			return nil, fmt.Errorf("app: %s store needs an open database", cfg.Store.Backend)
		}
		return docstore.NewSQLStore(db, cfg.Store.Key)
	case coreconfig.BackendMemory:
		return docstore.NewMemoryStore(nil), nil
	}
	return nil, fmt.Errorf("app: unknown store backend %q", cfg.Store.Backend)
}

// NewGateway wraps store with the configured timeout and retry budget.
func NewGateway(cfg *coreconfig.Config, store docstore.Store) *docstore.Gateway {
	return docstore.NewGateway(store,
		docstore.WithUpdateAttempts(cfg.Store.UpdateAttempts),
		docstore.WithTimeout(cfg.Store.Timeout),
	)
}

// NewPublisher dials the broker when one is configured. A broker that cannot be reached
// is logged and replaced by events.Nop; events are never required for the bot to work.
func NewPublisher(cfg *coreconfig.Config) events.Publisher {
	if cfg.Events.AMQPURL == "" {
		return events.Nop{}
	}
	p, err := events.DialAMQP(cfg.Events.AMQPURL, cfg.Events.Exchange)
	if err != nil {
		logger.Events.Warn("broker unavailable, events disabled",
			slog.String("event", "events.dial"),
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return events.Nop{}
	}
	return p
}

// New wires the bot. Commands and callbacks are registered immediately.
func New(cfg *coreconfig.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config provided")
	}

	store := opts.Store
	if store == nil {
		var err error
		if store, err = NewStore(cfg, opts.DB); err != nil {
			return nil, err
		}
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = NewPublisher(cfg)
	}

	docs := NewGateway(cfg, store)
	dispatcher, err := bot.New(bot.Options{
		Documents: docs,
		Sessions:  state.NewStore[bot.Session](state.WithTTL(cfg.Budget.SessionTTL)),
		Publisher: publisher,
		View:      present.New(cfg.Budget.Currency, cfg.Telegram.WebAppURL),
	})
	if err != nil {
		_ = publisher.Close()
		return nil, err
	}

	reg := tg.NewRegistry()
	if err := dispatcher.Register(reg); err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}

	return &App{
		cfg:        cfg,
		db:         opts.DB,
		docs:       docs,
		publisher:  publisher,
		dispatcher: dispatcher,
		registry:   reg,
	}, nil
}

// CoreConfig returns the configuration the app was built from.
func (a *App) CoreConfig() *coreconfig.Config { return a.cfg }

// Documents returns the document gateway.
func (a *App) Documents() *docstore.Gateway { return a.docs }

// Registry returns the command and callback registry.
func (a *App) Registry() *tg.Registry { return a.registry }

// TelegramRunOptions returns the middleware chain and routes of the bot.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	d := a.dispatcher

	routes := router.CommandRoutes(a.registry)
	routes = append(routes, router.TextRoutes(d, a.registry, router.TextOptions{})...)
	routes = append(routes, router.CallbackRoute(a.registry))

	return tg.RunOptions{
		Config:   a.cfg,
		Registry: a.registry,
		Middlewares: tg.DefaultMiddlewares(a.cfg, tg.MiddlewareOptions{
			OnLimited:  d.Limited,
			OnRejected: d.Rejected,
		}),
		Routes:  routes,
		OnStart: a.warmUp,
	}, nil
}

// warmUp reads the document once so that the first user request hits a warm store.
func (a *App) warmUp(ctx context.Context, _ tg.Runtime) error {
	start := time.Now()
	doc := a.docs.Fetch(ctx).Doc
	logger.Store.InfoContext(ctx, "document loaded",
		slog.String("event", "store.warmup"),
		slog.String("backend", a.cfg.Store.Backend),
		slog.Int("categories", len(doc.Categories)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// Workers returns the background tasks that run next to the bot.
func (a *App) Workers() []corecmd.Worker {
	sessions := a.dispatcher.Sessions()
	loop := refresh.New(a.docs, a.cfg.Budget.RefreshInterval)
	return []corecmd.Worker{
		{Name: "refresh", Run: loop.Run},
		{Name: "session_sweeper", Run: func(ctx context.Context) error {
			return sessions.RunSweeper(ctx, a.cfg.Budget.SweepInterval)
		}},
	}
}

// Close releases the event publisher and the database.
func (a *App) Close() error {
	err := a.publisher.Close()
	if a.db != nil {
		if dbErr := a.db.Close(); err == nil {
			err = dbErr
		}
	}
	return err
}
