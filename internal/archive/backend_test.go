package archive

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car-cost-estimator/internal/config"
)

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	cfg := &config.Config{Archive: config.ArchiveConfig{
		Path:       filepath.Join(dir, "studies.json"),
		SQLitePath: filepath.Join(dir, "studies.db"),
	}}

	for backend, want := range map[string]interface{}{
		config.BackendMemory: &MemoryStore{},
		config.BackendFile:   &FileStore{},
		config.BackendSQLite: &SQLiteStore{},
	} {
		cfg.Archive.Backend = backend
		store, err := OpenStore(ctx, cfg, logger)
		require.NoError(t, err, backend)
		assert.IsType(t, want, store)
		require.NoError(t, store.Close())
	}

	cfg.Archive.Backend = "tape"
	_, err := OpenStore(ctx, cfg, logger)
	assert.Error(t, err)
}
