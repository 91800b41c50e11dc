package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/storage"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of KindCreated, KindUpdated, KindDeleted.
type EventCallback func(kind string, c content.Category, path string)

const reconcileDelay = 200 * time.Millisecond

// Watch starts an fsnotify watcher on every category root and processes
// file change events until ctx is cancelled. Missing roots are created. It
// calls cb (if non-nil) after each index mutation.
//
// New directories created at runtime are automatically added to the watch
// list. Rename events trigger a reconciliation pass that removes stale
// index entries whose files no longer exist on disk.
func Watch(ctx context.Context, db DocumentIndex, repo *content.Repository, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	roots := repo.Roots()
	for _, c := range content.Categories() {
		root, _ := roots.RootFor(c)
		if err := os.MkdirAll(root, 0o755); err != nil {
			return errors.Wrapf(err, "index: create %s root", c)
		}
		if err := addDirsRecursive(w, root); err != nil {
			return errors.Wrapf(err, "index: watch %s root", c)
		}
		logger.Info("watcher: started", slog.String("category", string(c)), slog.String("root", root))
	}

	notify := func(kind string, c content.Category, rel string) {
		if cb != nil {
			cb(kind, c, rel)
		}
	}

	// reconcileTimer is used to debounce rename reconciliation.
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
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, repo, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			// New directories: watch them and index what they already hold.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					indexNewDir(db, repo, absPath, logger, notify)
					continue
				}
			}

			if !isDocument(absPath) {
				continue
			}
			c, rel, ok := roots.Locate(absPath)
			if !ok {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				kind, idxErr := IndexDocument(db, repo, c, rel)
				if idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("category", string(c)), slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				if kind == "" {
					continue
				}
				logger.Debug("watcher: indexed", slog.String("category", string(c)), slog.String("path", rel), slog.String("op", kind))
				notify(kind, c, rel)

			case ev.Op&fsnotify.Remove != 0:
				if delErr := db.DeleteDocument(c, rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("category", string(c)), slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				logger.Debug("watcher: deleted", slog.String("category", string(c)), slog.String("path", rel))
				notify(KindDeleted, c, rel)

			case ev.Op&fsnotify.Rename != 0:
				// fsnotify fires Rename on the OLD path only. The new
				// path will arrive as a separate Create event (if it
				// stays within a watched dir). We delete the old entry
				// immediately and schedule a short reconciliation pass
				// to catch any stragglers.
				if delErr := db.DeleteDocument(c, rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("category", string(c)), slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					logger.Debug("watcher: rename old deleted", slog.String("category", string(c)), slog.String("path", rel))
					notify(KindDeleted, c, rel)
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

// isDocument reports whether name is a content document and not a temporary
// file left by an atomic write.
func isDocument(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, content.Ext) && !strings.HasPrefix(base, storage.TempPrefix)
}

// reconcile removes index entries without a file on disk and indexes files
// that are missing or stale in the index.
func reconcile(db DocumentIndex, repo *content.Repository, logger *slog.Logger, notify EventCallback) {
	for _, c := range content.Categories() {
		checksums, err := db.AllChecksums(c)
		if err != nil {
			logger.Warn("reconcile: all checksums failed", slog.String("category", string(c)), slog.String("error", err.Error()))
			continue
		}

		disk := make(map[string]struct{}, len(checksums))
		for p := range repo.List(c, "") {
			disk[p] = struct{}{}
			kind, err := IndexDocument(db, repo, c, p)
			if err != nil || kind == "" {
				continue
			}
			logger.Debug("reconcile: indexed", slog.String("category", string(c)), slog.String("path", p))
			notify(kind, c, p)
		}

		for p := range checksums {
			if _, ok := disk[p]; ok {
				continue
			}
			if err := db.DeleteDocument(c, p); err == nil {
				logger.Debug("reconcile: removed stale", slog.String("category", string(c)), slog.String("path", p))
				notify(KindDeleted, c, p)
			}
		}
	}
}

// indexNewDir indexes any documents found in a newly created directory.
func indexNewDir(db DocumentIndex, repo *content.Repository, dirPath string, logger *slog.Logger, notify EventCallback) {
	roots := repo.Roots()
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !isDocument(path) {
			return nil
		}
		c, rel, ok := roots.Locate(path)
		if !ok {
			return nil
		}
		kind, idxErr := IndexDocument(db, repo, c, rel)
		if idxErr == nil && kind != "" {
			logger.Debug("watcher: indexed from new dir", slog.String("category", string(c)), slog.String("path", rel))
			notify(kind, c, rel)
		}
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
