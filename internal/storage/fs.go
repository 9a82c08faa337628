package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/starford/tagnote/internal/models"
)

// FS implements Provider as a JSON snapshot file on the local file system.
type FS struct {
	path string // absolute path to the snapshot file

	mu      sync.Mutex
	lastSum string
}

// NewFS creates a file provider for the snapshot at path.
// The parent directory is created if missing.
func NewFS(path string) (*FS, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("storage: mkdir: %w", err)
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return nil, fmt.Errorf("storage: snapshot path is a directory: %s", abs)
	}
	return &FS{path: abs}, nil
}

// Path returns the absolute snapshot path.
func (f *FS) Path() string { return f.path }

// Load reads and decodes the snapshot. A missing file is an empty collection.
func (f *FS) Load() ([]models.Note, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Note{}, nil
		}
		return nil, fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	var notes []models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", f.path, err)
	}
	f.mu.Lock()
	f.lastSum = checksum(data)
	f.mu.Unlock()
	return normalize(notes), nil
}

// Save atomically writes the snapshot: tmp file → fsync → rename.
func (f *FS) Save(notes []models.Note) error {
	data, err := json.MarshalIndent(normalize(notes), "", "  ")
	if err != nil {
		return fmt.Errorf("storage: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".tagnote-tmp-*")
	if err != nil {
		return fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("storage: rename: %w", err)
	}
	success = true

	f.mu.Lock()
	f.lastSum = checksum(data)
	f.mu.Unlock()
	return nil
}

// Changed reports whether the file on disk differs from the snapshot this
// provider last read or wrote. A missing file counts as changed only if a
// snapshot was seen before.
func (f *FS) Changed() (bool, error) {
	data, err := os.ReadFile(f.path)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return f.lastSum != "", nil
		}
		return false, fmt.Errorf("storage: read %s: %w", f.path, err)
	}
	return checksum(data) != f.lastSum, nil
}

// Close is a no-op for the file provider.
func (f *FS) Close() error { return nil }

func checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
