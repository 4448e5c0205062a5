package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/budgetbot/core/config"
)

func TestEmbeddedMigrationsPerDriver(t *testing.T) {
	for _, driver := range []string{DriverPostgres, DriverSQLite} {
		files := listMigrationFiles(migrationsFS, "migrations/"+driver)
		assert.Equal(t, []string{"0001_create_documents.up.sql"}, files, driver)
	}
}

func TestSelectApplied(t *testing.T) {
	files := []string{"0001_a.up.sql", "0002_b.up.sql", "0003_c.up.sql"}
	assert.Equal(t, []string{"0002_b.up.sql", "0003_c.up.sql"}, selectApplied(files, 1, 3))
	assert.Nil(t, selectApplied(files, 3, 3))
}

func TestSQLiteMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cfg := config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "db", "budget.db")}

	db, err := Connect(ctx, DriverSQLite, cfg)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, DriverSQLite, cfg))
	require.NoError(t, RunMigrations(ctx, DriverSQLite, cfg))

	var n int
	require.NoError(t, db.GetContext(ctx, &n, `SELECT COUNT(*) FROM documents`))
	assert.Zero(t, n)
}

func TestDSNRejectsUnknownDriver(t *testing.T) {
	_, err := DSN("mysql", config.DatabaseConfig{})
	assert.Error(t, err)
}

func TestDSNAndTarget(t *testing.T) {
	cfg := config.DatabaseConfig{User: "bot", Password: "pw", Host: "db", Port: "5432", Name: "budget", SSLMode: "disable"}
	dsn, err := DSN(DriverPostgres, cfg)
	require.NoError(t, err)
	assert.Equal(t, "user=bot password=pw host=db port=5432 dbname=budget sslmode=disable", dsn)
	assert.Equal(t, "db:5432", target(DriverPostgres, cfg))

	_, err = DSN(DriverSQLite, config.DatabaseConfig{})
	assert.Error(t, err)
	assert.Equal(t, "/tmp/budget.db", target(DriverSQLite, config.DatabaseConfig{Path: "/tmp/budget.db"}))
}
