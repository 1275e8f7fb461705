package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrTooLarge is returned when an upload exceeds the configured size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// ErrInvalidName is returned for stored names that would escape the base dir.
var ErrInvalidName = errors.New("invalid file name")

// LocalStorage persists uploaded files on disk under a base directory.
type LocalStorage struct {
	baseDir string
	maxSize int64
}

// NewLocalStorage ensures the base directory exists and returns a handle.
// A maxSize of zero disables the size check.
func NewLocalStorage(baseDir string, maxSize int64) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, maxSize: maxSize}, nil
}

// Save copies r into a new file named by a random UUID with the given
// extension and returns the stored name. Partial files are removed on error.
func (s *LocalStorage) Save(ext string, r io.Reader) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	name := uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	path := filepath.Join(s.baseDir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create stored file: %w", err)
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	written, copyErr := io.Copy(file, src)
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("write stored file: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return "", fmt.Errorf("close stored file: %w", closeErr)
	case s.maxSize > 0 && written > s.maxSize:
		_ = os.Remove(path)
		return "", ErrTooLarge
	}
	return name, nil
}

// Open returns a read-only handle for a stored file.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return nil
}

// Path exposes the absolute path of a stored file.
func (s *LocalStorage) Path(name string) (string, error) {
	return s.resolve(name)
}

func (s *LocalStorage) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.baseDir, name), nil
}
