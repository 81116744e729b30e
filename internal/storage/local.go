// Package storage keeps uploaded documents on the local filesystem.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidPath is returned for relative paths that escape the root.
var ErrInvalidPath = errors.New("invalid storage path")

// LocalStore writes files below a root directory. Paths handed out and
// accepted are slash-separated and relative to the root, e.g.
// "documents/keur/<uuid>.pdf", so they can be stored in the database as is.
type LocalStore struct {
	root string
}

// NewLocalStore returns a LocalStore rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage.NewLocalStore: %w", err)
	}
	return &LocalStore{root: dir}, nil
}

// Root returns the directory the store writes to.
func (s *LocalStore) Root() string { return s.root }

// Save copies r into dir under a fresh random name with the given extension
// and returns the relative path. A partially written file is removed.
func (s *LocalStore) Save(dir, ext string, r io.Reader) (string, error) {
	rel := path.Join(dir, uuid.NewString()+strings.ToLower(ext))
	full, err := s.resolve(rel)
	if err != nil {
		return "", fmt.Errorf("storage.LocalStore.Save: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("storage.LocalStore.Save: %w", err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage.LocalStore.Save: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("storage.LocalStore.Save: write: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("storage.LocalStore.Save: close: %w", err)
	}
	return rel, nil
}

// Remove deletes a previously saved file. Removing a file that is already
// gone is not an error.
func (s *LocalStore) Remove(rel string) error {
	full, err := s.resolve(rel)
	if err != nil {
		return fmt.Errorf("storage.LocalStore.Remove: %w", err)
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage.LocalStore.Remove: %w", err)
	}
	return nil
}

func (s *LocalStore) resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if rel == "" || clean == "/" || clean != "/"+rel {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, rel)
	}
	return filepath.Join(s.root, filepath.FromSlash(clean[1:])), nil
}
