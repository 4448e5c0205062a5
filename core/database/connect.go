// Package database connects to and migrates the SQL backends of the budget document store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/core/logger"
)

// Driver names as registered with database/sql.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	connectTimeout = 5 * time.Second
	pingInterval   = 2 * time.Second
)

// DSN builds the connection string for driver.
func DSN(driver string, cfg config.DatabaseConfig) (string, error) {
	switch driver {
	case DriverPostgres:
		return fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode), nil
	case DriverSQLite:
		if cfg.Path == "" {
			return "", fmt.Errorf("sqlite path is empty")
		}
		// One writer at a time; readers wait instead of failing with SQLITE_BUSY.
		return cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", nil
	}
	return "", fmt.Errorf("unsupported driver %q", driver)
}

// Connect opens the pool for driver and pings it. SQLite gets a single connection and
// its directory is created on demand.
func Connect(ctx context.Context, driver string, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn, err := DSN(driver, cfg)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	start := time.Now()
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	attrs := []slog.Attr{
		slog.String("event", "db.connect"),
		slog.String("driver", driver),
		slog.String("host", target(driver, cfg)),
		slog.String("db", cfg.Name),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		logger.DB.LogAttrs(ctx, slog.LevelError, "db connect failed",
			append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))...)
		return nil, fmt.Errorf("db connect: %w", err)
	}

	pool := cfg.MaxConnections
	if driver == DriverSQLite || pool <= 0 {
		pool = 1
	}
	db.SetMaxOpenConns(pool)
	db.SetMaxIdleConns(pool)
	logger.DB.LogAttrs(ctx, slog.LevelInfo, "db connected",
		append(attrs, slog.String("status", "ok"), slog.Int("pool_open", pool))...)
	return db, nil
}

func target(driver string, cfg config.DatabaseConfig) string {
	if driver == DriverSQLite {
		return cfg.Path
	}
	return net.JoinHostPort(cfg.Host, cfg.Port)
}

// WaitForPostgres pings dsn every couple of seconds until it answers, timeout passes or
// ctx ends.
func WaitForPostgres(ctx context.Context, dsn string, timeout time.Duration) error {
	db, err := sql.Open(DriverPostgres, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	deadline := time.Now().Add(timeout)
	for {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout reached waiting for database: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pingInterval):
		}
	}
}
