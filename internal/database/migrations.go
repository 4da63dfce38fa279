package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations run in order; each one must be idempotent.
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "create study_archive",
		sql: `
			CREATE TABLE IF NOT EXISTS study_archive (
				key        TEXT PRIMARY KEY,
				document   JSONB NOT NULL DEFAULT '[]'::jsonb,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
	},
	{
		name: "document must be an array",
		sql: `
			DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint WHERE conname = 'study_archive_document_array'
				) THEN
					ALTER TABLE study_archive
						ADD CONSTRAINT study_archive_document_array
						CHECK (jsonb_typeof(document) = 'array');
				END IF;
			END $$`,
	},
}

// RunMigrations creates the tables of the postgres study archive
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("failed to run migration %q: %w", m.name, err)
		}
	}
	return nil
}
