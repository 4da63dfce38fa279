package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the document in one row of a local sqlite database.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

// OpenSQLiteStore opens (or creates) the database at path and its table.
// Use ":memory:" for a throwaway database.
func OpenSQLiteStore(ctx context.Context, path, key string) (*SQLiteStore, error) {
	if key == "" {
		key = DefaultKey
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// one connection, otherwise every ":memory:" connection is a new database
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS study_archive (
			key        TEXT PRIMARY KEY,
			document   TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create study_archive table: %w", err)
	}

	return &SQLiteStore{db: db, key: key}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) ([]byte, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM study_archive WHERE key = ?`, s.key,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load study archive: %w", err)
	}
	return []byte(document), nil
}

func (s *SQLiteStore) Save(ctx context.Context, document []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO study_archive (key, document, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE
		SET document = excluded.document, updated_at = excluded.updated_at
	`, s.key, string(document))
	if err != nil {
		return fmt.Errorf("failed to save study archive: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
