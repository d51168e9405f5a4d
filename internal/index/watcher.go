package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/docsite/internal/storage"
)

// Change kinds.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// DebounceInterval is how long the watcher waits for the tree to settle
// before reporting a batch.
const DebounceInterval = 200 * time.Millisecond

// Change is one content file that changed, relative to the content root.
type Change struct {
	Kind string
	Path string
}

// ChangeFunc receives one debounced batch of changes, sorted by path.
type ChangeFunc func(changes []Change)

// Watch starts an fsnotify watcher on the content root and reports .md
// changes until ctx is cancelled. Bursts of events are coalesced per path
// and delivered after DebounceInterval of quiet.
//
// New directories created at runtime are added to the watch list and any
// .md files already inside them are reported as created. fsnotify reports
// a rename on the old path only; it is delivered as a deletion and the new
// path arrives as a separate create.
func Watch(ctx context.Context, root string, logger *slog.Logger, onChange ChangeFunc) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root, logger); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	pending := make(map[string]string)
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	record := func(kind, abs string) {
		rel, relErr := filepath.Rel(root, abs)
		if relErr != nil {
			return
		}
		rel = filepath.ToSlash(rel)
		pending[rel] = coalesce(pending[rel], kind)
		if timer == nil {
			timer = time.NewTimer(DebounceInterval)
			timerCh = timer.C
		} else {
			timer.Reset(DebounceInterval)
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
			timer, timerCh = nil, nil
			batch := flush(pending)
			pending = make(map[string]string)
			if len(batch) == 0 {
				continue
			}
			logger.Debug("watcher: changes", slog.Int("count", len(batch)))
			if onChange != nil {
				onChange(batch)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name, logger); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					for _, p := range markdownFiles(ev.Name) {
						record(ChangeCreated, p)
					}
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}

			switch {
			case ev.Op&fsnotify.Create != 0:
				record(ChangeCreated, ev.Name)
			case ev.Op&fsnotify.Write != 0:
				record(ChangeUpdated, ev.Name)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				record(ChangeDeleted, ev.Name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// coalesce merges a new event kind into the kind already pending for a path.
func coalesce(prev, next string) string {
	switch {
	case prev == "":
		return next
	case prev == ChangeCreated && next == ChangeUpdated:
		return ChangeCreated
	case prev == ChangeDeleted && next == ChangeCreated:
		return ChangeUpdated
	default:
		return next
	}
}

func flush(pending map[string]string) []Change {
	out := make([]Change, 0, len(pending))
	for p, kind := range pending {
		out = append(out, Change{Kind: kind, Path: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// markdownFiles lists the .md files under dir.
func markdownFiles(dir string) []string {
	var out []string
	_ = storage.Walk(dir, func(path string, d fs.DirEntry) error {
		if !d.IsDir() && strings.HasSuffix(path, ".md") {
			out = append(out, path)
		}
		return nil
	}, nil)
	return out
}

// addDirsRecursive adds root and all its subdirectories, symlinked ones
// included, to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string, logger *slog.Logger) error {
	return storage.Walk(root, func(path string, d fs.DirEntry) error {
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	}, func(path string, err error) {
		logger.Warn("watcher: skipped", slog.String("path", path), slog.String("error", err.Error()))
	})
}
