// Package watch reloads the note collection when the snapshot file is
// changed by another process.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of file events into one reload.
const DefaultDebounce = 200 * time.Millisecond

// Snapshot is a file-backed store that can tell its own writes apart from
// foreign ones.
type Snapshot interface {
	Path() string
	Changed() (bool, error)
}

// Reloader re-reads the collection from storage.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Watch watches the snapshot's directory and calls r.Reload after a debounced
// burst of events on the snapshot file, unless the file content still matches
// what the store last read or wrote. It blocks until ctx is cancelled.
//
// The directory is watched rather than the file because atomic saves replace
// the file by rename.
func Watch(ctx context.Context, snap Snapshot, r Reloader, debounce time.Duration, logger *slog.Logger) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	target := filepath.Clean(snap.Path())
	if err := w.Add(filepath.Dir(target)); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", target))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			changed, err := snap.Changed()
			if err != nil {
				logger.Warn("watcher: compare failed", slog.String("error", err.Error()))
				continue
			}
			if !changed {
				logger.Debug("watcher: snapshot unchanged, skipping reload")
				continue
			}
			if err := r.Reload(ctx); err != nil {
				logger.Warn("watcher: reload failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("watcher: snapshot event", slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
