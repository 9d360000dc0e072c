package server

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
	"github.com/OldUser101/tars/internal/logfields"
)

// watcher watches every directory beneath each root. A root that does not
// exist yet is tracked through its nearest existing ancestor and watched once
// it is created.
type watcher struct {
	fs      *fsnotify.Watcher
	active  []string
	pending []string
	// parents are ancestors watched on behalf of pending roots.
	parents map[string]bool
}

func newWatcher(roots []string) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WatchError("failed to create filesystem watcher").WithCause(err).Fatal().Build()
	}
	w := &watcher{fs: fw, parents: map[string]bool{}}
	for _, root := range roots {
		root = filepath.Clean(root)
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Watch directory does not exist, waiting for it to be created", logfields.Path(root))
			w.pending = append(w.pending, root)
			continue
		}
		w.activate(root)
	}
	w.watchParents()
	return w, nil
}

func (w *watcher) Close() error { return w.fs.Close() }

func (w *watcher) activate(root string) {
	addDirsRecursive(w.fs, root)
	w.active = append(w.active, root)
	slog.Debug("Watching directory", logfields.Path(root))
}

// watchParents watches the nearest existing ancestor of each pending root and
// drops ancestors that are no longer needed.
func (w *watcher) watchParents() {
	need := map[string]bool{}
	for _, root := range w.pending {
		if dir, ok := nearestExisting(filepath.Dir(root)); ok {
			need[dir] = true
		}
	}
	for dir := range need {
		if w.parents[dir] {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			slog.Warn("Watch add failed", logfields.Path(dir), logfields.Error(err))
		}
	}
	for dir := range w.parents {
		if !need[dir] && !w.inActive(dir) {
			_ = w.fs.Remove(dir)
		}
	}
	w.parents = need
}

// resolvePending starts watching pending roots that now exist and reports
// whether any did.
func (w *watcher) resolvePending() bool {
	var still []string
	created := false
	for _, root := range w.pending {
		if st, err := os.Stat(root); err == nil && st.IsDir() {
			slog.Info("Watch directory created", logfields.Path(root))
			w.activate(root)
			created = true
			continue
		}
		still = append(still, root)
	}
	w.pending = still
	w.watchParents()
	return created
}

func (w *watcher) inActive(path string) bool {
	for _, root := range w.active {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func nearestExisting(dir string) (string, bool) {
	for {
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// handle reports whether ev should trigger a rebuild. Newly created
// directories are added to the watch. Events in an ancestor of a pending root
// only count when they bring that root into existence.
func (w *watcher) handle(ev fsnotify.Event) bool {
	if shouldIgnoreEvent(ev) {
		return false
	}
	if w.parents[filepath.Dir(ev.Name)] && !w.inActive(ev.Name) {
		return w.resolvePending()
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDirsRecursive(w.fs, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), logfields.Op(ev.Op.String()))
	return true
}

// shouldIgnoreEvent filters permission-only changes plus hidden, editor swap
// and backup files.
func shouldIgnoreEvent(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return true
	}
	base := filepath.Base(ev.Name)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "4913", base == "Thumbs.db":
		return true
	}
	return false
}

// debouncer collapses triggers arriving within window into one rebuild
// request. The request channel holds at most one pending request.
type debouncer struct {
	window time.Duration
	out    chan struct{}

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window, out: make(chan struct{}, 1)}
}

// C delivers rebuild requests.
func (d *debouncer) C() <-chan struct{} { return d.out }

// Trigger restarts the window.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		select {
		case d.out <- struct{}{}:
		default:
		}
	})
}

// Stop cancels any pending window.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
