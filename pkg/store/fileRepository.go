package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileRepository writes each receipt as a JSON file named
// msg-<userID>-<messageID>.meta.json in the configured directory.
// This is the default metadata store.
type FileRepository struct {
	dir string
}

func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating metadata dir: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) Save(_ context.Context, rec ReceiptRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("msg-%s-%s.meta.json", rec.UserID, rec.MessageID)
	return os.WriteFile(filepath.Join(r.dir, name), data, 0o644)
}

func (r *FileRepository) Close(context.Context) error { return nil }
