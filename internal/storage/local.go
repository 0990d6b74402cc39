package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LocalStorage keeps files below a root directory
type LocalStorage struct {
	root string
}

// NewLocalStorage creates the root directory if needed
func NewLocalStorage(root string) (*LocalStorage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "resolve media root")
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, errors.Wrap(err, "create media root")
	}
	return &LocalStorage{root: abs}, nil
}

func (s *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	full := filepath.Join(s.root, clean)
	if !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return full, nil
}

// Save writes r to key, replacing an existing file atomically
func (s *LocalStorage) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return errors.Wrap(err, "create directory")
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), full), "move file")
}

// Open opens the file stored at key
func (s *LocalStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := s.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(ErrNotFound, key)
	}
	if err != nil {
		return nil, errors.Wrap(err, "open file")
	}
	return f, nil
}

// Delete removes the file at key; missing files are not an error
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	full, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "delete file")
	}
	return nil
}
