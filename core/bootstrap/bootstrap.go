package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/budgetbot/core/config"
	coredatabase "github.com/m3rciful/budgetbot/core/database"
	"github.com/m3rciful/budgetbot/core/logger"
)

// Options control the generic bootstrap pipeline.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(ctx context.Context, driver string, cfg coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(ctx context.Context, driver string, cfg coreconfig.DatabaseConfig) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
type Result struct {
	// DB is nil unless the store backend is a SQL database.
	DB     *sqlx.DB
	Driver string
}

// Close releases the database connection, if any.
func (r *Result) Close() error {
	if r == nil || r.DB == nil {
		return nil
	}
	return r.DB.Close()
}

// SQLDriver maps a store backend to its database driver. It reports false for backends
// that do not use a database.
func SQLDriver(backend string) (string, bool) {
	switch backend {
	case coreconfig.BackendPostgres:
		return coredatabase.DriverPostgres, true
	case coreconfig.BackendSQLite:
		return coredatabase.DriverSQLite, true
	}
	return "", false
}

// Run initializes the logger and, for SQL store backends, connects to the database and
// applies migrations.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(opts.Config); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	driver, ok := SQLDriver(opts.Config.Store.Backend)
	if !ok {
		return &Result{}, nil
	}
	dbCfg := opts.Config.Store.Database

	connect := opts.Connect
	if connect == nil {
		connect = coredatabase.Connect
	}
	db, err := connect(ctx, driver, dbCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
	}

	migrate := opts.Migrate
	if migrate == nil {
		migrate = coredatabase.RunMigrations
	}
	if err := migrate(ctx, driver, dbCfg); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
	}

	return &Result{DB: db, Driver: driver}, nil
}
