package archive

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the document in one row of study_archive.
// The table is created by database.RunMigrations.
type PostgresStore struct {
	pool *pgxpool.Pool
	key  string
}

func NewPostgresStore(pool *pgxpool.Pool, key string) *PostgresStore {
	if key == "" {
		key = DefaultKey
	}
	return &PostgresStore{pool: pool, key: key}
}

func (s *PostgresStore) Load(ctx context.Context) ([]byte, error) {
	var document []byte
	err := s.pool.QueryRow(ctx, `
		SELECT document::text
		FROM study_archive
		WHERE key = $1
	`, s.key).Scan(&document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load study archive: %w", err)
	}
	return document, nil
}

func (s *PostgresStore) Save(ctx context.Context, document []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO study_archive (key, document, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (key) DO UPDATE
		SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at
	`, s.key, string(document))
	if err != nil {
		return fmt.Errorf("failed to save study archive: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
