package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/starford/zettel/internal/storage"
)

// Event kinds passed to EventCallback.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// EventCallback is called after a watcher-driven index change.
type EventCallback func(kind string, title string)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on the archive directory and processes note
// file changes until ctx is cancelled. cb (if non-nil) runs after each
// successful index mutation.
//
// Rename events trigger a debounced reconciliation pass that removes index
// entries whose files no longer exist and indexes files that appeared.
func Watch(ctx context.Context, db NoteIndex, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	var reconcileTimer *time.Timer
	var reconcileCh <-chan time.Time

	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped", slog.String("root", root))
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			name := filepath.Base(ev.Name)
			title, isNote := titleOf(name)
			if !isNote || filepath.Dir(ev.Name) != root {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				data, readErr := store.Read(name)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("title", title), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := IndexFile(db, title, data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("title", title), slog.String("error", idxErr.Error()))
					continue
				}
				kind := EventUpdated
				if ev.Op&fsnotify.Create != 0 {
					kind = EventCreated
				}
				logger.Debug("watcher: indexed", slog.String("title", title), slog.String("op", kind))
				if cb != nil {
					cb(kind, title)
				}

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteNote(title); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("title", title), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("title", title))
				if cb != nil {
					cb(EventDeleted, title)
				}

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify reports Rename on the old name only; the new name
				// arrives as a Create if it stays inside the archive.
				if delErr := db.DeleteNote(title); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("title", title), slog.String("error", delErr.Error()))
				} else if cb != nil {
					cb(EventDeleted, title)
				}
				scheduleReconcile()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes index entries without a file and indexes files that are
// missing from the index or changed.
func reconcile(db NoteIndex, store storage.Provider, logger *slog.Logger, cb EventCallback) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}

	metas, err := store.List()
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	paths := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Title] = m.Checksum
		paths[m.Title] = m.Path
	}

	for title := range checksums {
		if _, ok := disk[title]; !ok {
			if delErr := db.DeleteNote(title); delErr == nil {
				logger.Debug("reconcile: removed stale", slog.String("title", title))
				if cb != nil {
					cb(EventDeleted, title)
				}
			}
		}
	}

	for title, cs := range disk {
		if checksums[title] == cs {
			continue
		}
		data, readErr := store.Read(paths[title])
		if readErr != nil {
			continue
		}
		if idxErr := IndexFile(db, title, data); idxErr == nil {
			logger.Debug("reconcile: indexed", slog.String("title", title))
			if cb != nil {
				cb(EventCreated, title)
			}
		}
	}
}
