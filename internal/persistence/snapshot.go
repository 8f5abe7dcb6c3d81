// Package persistence serializes store snapshots to durable storage on
// its own schedule. The core only exposes Snapshot/Restore; everything
// here runs outside the store lock.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/tessera-chat/tessera/internal/models"
)

// Snapshotter saves and loads whole-state snapshots. Load returns
// (nil, nil) when no snapshot exists yet.
type Snapshotter interface {
	Save(ctx context.Context, snap *models.Snapshot) error
	Load(ctx context.Context) (*models.Snapshot, error)
}

// File persists snapshots as JSON on local disk. Writes go through a
// temp file and rename so a crash mid-write never truncates the previous
// snapshot.
type File struct {
	path string
}

// NewFile returns a file-backed Snapshotter writing to path.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Save(_ context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("install snapshot: %w", err)
	}
	return nil
}

func (f *File) Load(_ context.Context) (*models.Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}
