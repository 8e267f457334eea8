package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend keeps each document as <dir>/<name>.json
type FileBackend struct {
	dir string
}

// NewFileBackend constructs a file backend rooted at dir. The directory is
// created on first write.
func NewFileBackend(dir string) (*FileBackend, error) {
	if dir == "" {
		return nil, errors.New("store: data directory is required")
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) Kind() string { return "file" }

func (b *FileBackend) pathFor(name string) string {
	return filepath.Join(b.dir, name+".json")
}

func (b *FileBackend) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(b.pathFor(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Write stages data in a temporary file next to the target and renames it
// into place.
func (b *FileBackend) Write(ctx context.Context, name string, data []byte) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(b.dir, "."+name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpPath, b.pathFor(name)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", name, err)
	}
	return nil
}

func (b *FileBackend) Stat(ctx context.Context, name string) (Info, error) {
	path := b.pathFor(name)
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, ErrNotFound
		}
		return Info{}, err
	}
	return Info{Name: name, Location: path, Modified: fi.ModTime()}, nil
}

func (b *FileBackend) Close() error { return nil }
