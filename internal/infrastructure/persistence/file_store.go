package persistence

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileStateStore хранит каждый раздел состояния в отдельном JSON-файле
// каталога stateDir.
type FileStateStore struct {
	stateDir string
	logger   *slog.Logger
}

func NewFileStateStore(stateDir string, logger *slog.Logger) (*FileStateStore, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("ошибка при создании каталога состояния %s: %w", stateDir, err)
	}

	return &FileStateStore{
		stateDir: stateDir,
		logger:   logger,
	}, nil
}

func (s *FileStateStore) Load(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("ошибка при чтении файла состояния %s: %w", key, err)
	}

	return data, nil
}

func (s *FileStateStore) Save(_ context.Context, key string, payload []byte) error {
	tmp := s.path(key) + ".tmp"

	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("ошибка при записи файла состояния %s: %w", key, err)
	}

	if err := os.Rename(tmp, s.path(key)); err != nil {
		return fmt.Errorf("ошибка при замене файла состояния %s: %w", key, err)
	}

	return nil
}

func (s *FileStateStore) Close() error {
	return nil
}

func (s *FileStateStore) path(key string) string {
	return filepath.Join(s.stateDir, key+".json")
}
