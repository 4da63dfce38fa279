package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the document in a single JSON file.
type FileStore struct {
	filePath string
}

// NewFileStore creates a store writing to filePath. The parent directory is
// created on first save.
func NewFileStore(filePath string) *FileStore {
	return &FileStore{
		filePath: filePath,
	}
}

// Load returns nil if the file does not exist yet
func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archive file: %w", err)
	}
	return data, nil
}

// Save replaces the file atomically through a temp file in the same directory
func (s *FileStore) Save(ctx context.Context, document []byte) error {
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp archive file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(document); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to write archive file: %w", err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		return fmt.Errorf("failed to replace archive file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) Path() string {
	return s.filePath
}
