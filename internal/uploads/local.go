package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStorage keeps uploads in a directory on disk
type LocalStorage struct {
	dir string
}

// NewLocalStorage stores files under dir, created on first write
func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

func (l *LocalStorage) Backend() string { return BackendLocal }

func (l *LocalStorage) Put(_ context.Context, name, _ string, data []byte) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}
	return os.WriteFile(filepath.Join(l.dir, name), data, 0o600)
}

func (l *LocalStorage) Get(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(l.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (l *LocalStorage) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(l.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

// Healthy reports whether the directory exists or can be created
func (l *LocalStorage) Healthy(context.Context) bool {
	return os.MkdirAll(l.dir, 0o755) == nil
}
