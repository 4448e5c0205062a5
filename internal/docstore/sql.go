package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/budgetbot/core/logger"
)

// SQLStore keeps the document as one row of the documents table. Versions are a
// per-row counter and writes are conditional on it.
type SQLStore struct {
	db  *sqlx.DB
	key string
}

// NewSQLStore returns a store for the row named key. The schema is expected to be
// migrated already.
func NewSQLStore(db *sqlx.DB, key string) (*SQLStore, error) {
	if db == nil || key == "" {
		return nil, ErrNotConfigured
	}
	return &SQLStore{db: db, key: key}, nil
}

type documentRow struct {
	Content string `db:"content"`
	Version int64  `db:"version"`
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context) ([]byte, Version, error) {
	var row documentRow
	query := s.db.Rebind(`SELECT content, version FROM documents WHERE key = ?`)
	err := s.db.GetContext(ctx, &row, query, s.key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("docstore: select document: %w", err)
	}
	return []byte(row.Content), Version(strconv.FormatInt(row.Version, 10)), nil
}

// Put implements Store.
func (s *SQLStore) Put(ctx context.Context, content []byte, expected Version) (Version, error) {
	if expected == "" {
		query := s.db.Rebind(`INSERT INTO documents (key, content, version, updated_at) VALUES (?, ?, 1, CURRENT_TIMESTAMP)`)
		if _, err := s.db.ExecContext(ctx, query, s.key, string(content)); err != nil {
			// Another writer created the row first.
			if _, v, getErr := s.Get(ctx); getErr == nil && v != "" {
				return "", ErrConflict
			}
			return "", fmt.Errorf("docstore: insert document: %w", err)
		}
		return "1", nil
	}

	current, err := strconv.ParseInt(string(expected), 10, 64)
	if err != nil {
		return "", ErrConflict
	}
	query := s.db.Rebind(`UPDATE documents SET content = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP WHERE key = ? AND version = ?`)
	res, err := s.db.ExecContext(ctx, query, string(content), s.key, current)
	if err != nil {
		return "", fmt.Errorf("docstore: update document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("docstore: rows affected: %w", err)
	}
	if n == 0 {
		logger.Store.Debug("stale version",
			slog.String("event", "store.put"),
			slog.String("backend", "sql"),
			slog.String("version", string(expected)),
		)
		return "", ErrConflict
	}
	return Version(strconv.FormatInt(current+1, 10)), nil
}
