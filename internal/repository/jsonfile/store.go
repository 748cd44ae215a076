package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/repository"
)

// Store keeps one <table>.json file per table inside a directory.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore ensures dir exists and returns a file-backed store.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir == "" {
		return nil, errors.New("data directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Load reads the table file. A missing file yields nil data.
func (s *Store) Load(_ context.Context, table repository.Table) ([]byte, error) {
	data, err := os.ReadFile(s.path(table))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path(table), err)
	}
	return data, nil
}

// Save rewrites the whole table file through a temp file and rename.
func (s *Store) Save(_ context.Context, table repository.Table, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, string(table)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", table, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path(table)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", s.path(table), err)
	}

	s.logger.Debug("table file written", zap.String("table", string(table)), zap.String("path", s.path(table)))
	return nil
}

func (s *Store) path(table repository.Table) string {
	return filepath.Join(s.dir, string(table)+".json")
}
