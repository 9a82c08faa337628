// Package storage persists the note collection as a whole snapshot and
// rehydrates it on startup.
package storage

import (
	"fmt"
	"log/slog"

	"github.com/starford/tagnote/internal/models"
)

// Storage drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Provider is the interface for snapshot persistence.
type Provider interface {
	// Load returns the stored notes in collection order. A store that holds
	// nothing yet returns an empty slice and no error.
	Load() ([]models.Note, error)
	// Save replaces the stored snapshot with notes.
	Save(notes []models.Note) error
	// Close releases the underlying resources.
	Close() error
}

// Open returns the provider for driver, rooted at path.
func Open(driver, path string) (Provider, error) {
	switch driver {
	case DriverFile, "":
		return NewFS(path)
	case DriverSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}

// LoadOrEmpty loads the snapshot, falling back to an empty collection when
// the store is unreadable.
func LoadOrEmpty(p Provider, logger *slog.Logger) []models.Note {
	notes, err := p.Load()
	if err != nil {
		logger.Warn("storage: load failed, starting with an empty collection",
			slog.String("error", err.Error()))
		return []models.Note{}
	}
	return notes
}

// normalize returns a copy of notes where tags are never null.
func normalize(notes []models.Note) []models.Note {
	out := make([]models.Note, len(notes))
	copy(out, notes)
	for i := range out {
		if out[i].Tags == nil {
			out[i].Tags = []string{}
		}
	}
	return out
}
