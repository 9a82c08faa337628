// Package testutil provides shared test helpers for setting up stores and services.
package testutil

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/tagnote/internal/noteservice"
	"github.com/starford/tagnote/internal/storage"
	"github.com/starford/tagnote/internal/suggest"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestStore creates a snapshot file provider in a temporary directory.
func TestStore(t *testing.T) *storage.FS {
	t.Helper()
	store, err := storage.NewFS(filepath.Join(t.TempDir(), "notes.json"))
	if err != nil {
		t.Fatal(err)
	}
	return store
}

// TestService creates a service over a temporary store with the given suggester.
func TestService(t *testing.T, s suggest.Suggester, opts ...noteservice.Option) (*noteservice.Service, *storage.FS) {
	t.Helper()
	store := TestStore(t)
	opts = append([]noteservice.Option{noteservice.WithLogger(Logger())}, opts...)
	return noteservice.NewService(store, s, opts...), store
}
