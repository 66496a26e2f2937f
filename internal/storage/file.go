package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"yieldfarm/internal/model"
)

// FileStore keeps the snapshot as a single JSON document.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(_ context.Context) (model.Snapshot, bool, error) {
	stat, err := os.Stat(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, fmt.Errorf("stat state file: %w", err)
	}
	if stat.IsDir() {
		return model.Snapshot{}, false, fmt.Errorf("state path is a directory")
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("read state file: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("parse state file: %w", err)
	}
	return snap, true, nil
}

// Save writes the snapshot to a temporary file and renames it over the old one.
func (f *FileStore) Save(_ context.Context, snap model.Snapshot) error {
	if err := ensureDir(f.path); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	snap.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }
