// Package storage persists downloaded media to the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore writes downloaded content under a destination supplied at
// construction time.
type FileStore interface {
	// WriteFile stores data under name. name must already be sanitized.
	WriteFile(name string, data []byte) error
}

type dirStore struct {
	dir string
}

// NewDirStore returns a FileStore rooted at dir, creating it if needed.
func NewDirStore(dir string) (FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating filestore dir: %w", err)
	}
	return &dirStore{dir: dir}, nil
}

func (s *dirStore) WriteFile(name string, data []byte) error {
	return os.WriteFile(filepath.Join(s.dir, name), data, 0o644)
}
