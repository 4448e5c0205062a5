package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/budgetbot/core/config"
	"github.com/m3rciful/budgetbot/core/logger"
)

// Each driver has its own directory of schema files for the documents table.
//
//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// readyTimeout bounds how long RunMigrations waits for a starting Postgres.
const readyTimeout = 30 * time.Second

// RunMigrations brings the documents schema for driver up to date. It opens its own
// connection because closing a migrate instance closes the database it was given.
func RunMigrations(ctx context.Context, driver string, cfg config.DatabaseConfig) error {
	dsn, err := DSN(driver, cfg)
	if err != nil {
		return err
	}
	if driver == DriverPostgres {
		if err := WaitForPostgres(ctx, dsn, readyTimeout); err != nil {
			return migrateFailed("wait", fmt.Errorf("database not ready: %w", err))
		}
	}

	dir := "migrations/" + driver
	files := listMigrationFiles(migrationsFS, dir)
	m, err := newMigrator(driver, dsn, dir)
	if err != nil {
		return migrateFailed("init", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return migrateFailed("apply", err)
	}
	to, _, _ := m.Version()

	applied := selectApplied(files, uint64(from), uint64(to))
	attrs := []slog.Attr{
		slog.String("event", "db.migrate"),
		slog.String("status", "ok"),
		slog.String("driver", driver),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("version", uint64(to)),
		slog.Int("files", len(applied)),
		slog.Duration("duration", logger.Took(start)),
	}
	if len(applied) > 0 {
		attrs = append(attrs, slog.String("applied", strings.Join(applied, ",")))
	}
	logger.MIG.LogAttrs(ctx, slog.LevelInfo, "schema up to date", attrs...)
	return nil
}

func migrateFailed(stage string, err error) error {
	logger.MIG.LogAttrs(context.Background(), slog.LevelError, "migration failed",
		slog.String("event", "db.migrate"),
		slog.String("status", "fail"),
		slog.String("stage", stage),
		slog.String("err", err.Error()),
	)
	return fmt.Errorf("migrate %s: %w", stage, err)
}

func newMigrator(driver, dsn, dir string) (*migrate.Migrate, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open migration database: %w", err)
	}

	var instance migratedb.Driver
	switch driver {
	case DriverPostgres:
		instance, err = postgres.WithInstance(db, &postgres.Config{})
	case DriverSQLite:
		instance, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		err = fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create %s driver: %w", driver, err)
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		_ = instance.Close()
		return nil, fmt.Errorf("create iofs source: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, driver, instance)
}

// listMigrationFiles returns the sorted up migrations in dir.
func listMigrationFiles(fsys fs.FS, dir string) []string {
	names, _ := fs.Glob(fsys, dir+"/*.up.sql")
	for i, n := range names {
		names[i] = strings.TrimPrefix(n, dir+"/")
	}
	slices.Sort(names)
	return names
}

// selectApplied returns the files whose version lies in (from, to].
func selectApplied(files []string, from, to uint64) []string {
	var out []string
	for _, f := range files {
		prefix, _, _ := strings.Cut(f, "_")
		if v, err := strconv.ParseUint(prefix, 10, 64); err == nil && v > from && v <= to {
			out = append(out, f)
		}
	}
	return out
}
