package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dkrasnove/faunaguess/internal/domain"
	"go.uber.org/zap"
)

// FileStore persists snapshots as a single JSON file. Saves are atomic:
// write to a temp file in the same directory, then rename.
type FileStore struct {
	path   string
	logger *zap.Logger
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

func (f *FileStore) Load(_ context.Context) (*domain.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Info("no data file, starting empty", zap.String("path", f.path))
			return &domain.Snapshot{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistenceFailure, f.path, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrPersistenceFailure, f.path, err)
	}
	return &snap, nil
}

func (f *FileStore) Save(_ context.Context, snap *domain.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", ErrPersistenceFailure, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: mkdir %s: %v", ErrPersistenceFailure, dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp")
	if err != nil {
		return fmt.Errorf("%w: temp file: %v", ErrPersistenceFailure, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write: %v", ErrPersistenceFailure, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrPersistenceFailure, err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("%w: rename: %v", ErrPersistenceFailure, err)
	}

	f.logger.Debug("saved snapshot",
		zap.String("path", f.path),
		zap.Int("animals", len(snap.Animals)),
		zap.Int("questions", len(snap.Questions)))
	return nil
}
