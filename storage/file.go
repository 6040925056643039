package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var ErrInvalidName = errors.New("invalid file name")

var _ Storage = (*FileStorage)(nil)

// FileStorage сохраняет ленту в файл локального каталога.
type FileStorage struct {
	dir string
	log *slog.Logger
}

func NewFileStorage(dir string, log *slog.Logger) *FileStorage {
	log.Info("Initializing file storage", slog.String("dir", dir))
	return &FileStorage{
		dir: dir,
		log: log,
	}
}

// Save записывает data в <dir>/<name> и возвращает путь к файлу.
// Существующий файл перезаписывается.
func (s *FileStorage) Save(ctx context.Context, name string, data []byte) (string, error) {
	const op = "storage.file.Save"
	log := s.log.With(slog.String("op", op), slog.String("name", name))
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		log.Error("Failed to create output directory", slog.Any("error", err))
		return "", fmt.Errorf("failed to create dir %s: %w", s.dir, err)
	}
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		log.Error("Failed to open file", slog.Any("error", err))
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		log.Error("Failed to write file", slog.Any("error", err))
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		log.Error("Failed to close file", slog.Any("error", err))
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	log.Info("Feed saved", slog.String("path", path), slog.Int("bytes", len(data)))
	return path, nil
}
