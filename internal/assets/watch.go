package assets

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-gltf/internal/logger"
)

// ErrWatcherClosed is returned when adding to a closed watcher.
var ErrWatcherClosed = errors.New("assets: watcher closed")

// Watcher reports changed asset files in debounced batches and drops them
// from the manager's cache before each batch is delivered.
type Watcher struct {
	fsw      *fsnotify.Watcher
	manager  *Manager
	debounce time.Duration
	exts     map[string]bool

	mu     sync.Mutex
	dirs   []string
	closed bool
}

// NewWatcher creates a watcher. manager may be nil. Only files whose
// extension is in exts are reported; an empty exts reports everything.
func NewWatcher(manager *Manager, debounce time.Duration, exts []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:      fsw,
		manager:  manager,
		debounce: debounce,
		exts:     make(map[string]bool, len(exts)),
	}
	for _, e := range exts {
		w.exts[strings.ToLower(e)] = true
	}
	return w, nil
}

// AddRecursive starts watching dir and all of its sub-directories.
func (w *Watcher) AddRecursive(dir string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.dirs = append(w.dirs, abs)
	w.mu.Unlock()

	return w.watchRecursive(abs)
}

func (w *Watcher) watchRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(p)
		}
		return nil
	})
}

// Run delivers batches of changed absolute paths to fn until ctx is done.
// A batch is flushed once no event arrived for the debounce interval.
func (w *Watcher) Run(ctx context.Context, fn func(paths []string)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case e, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if e.Op&fsnotify.Create != 0 {
				if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
					if err := w.watchRecursive(e.Name); err != nil {
						logger.Warn("watch directory failed", zap.String("dir", e.Name), zap.Error(err))
					}
					continue
				}
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.matches(e.Name) {
				continue
			}
			pending[e.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", zap.Error(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
				w.invalidate(p)
			}
			sort.Strings(paths)
			clear(pending)
			logger.Debug("assets changed", zap.Strings("paths", paths))
			fn(paths)
		}
	}
}

func (w *Watcher) matches(name string) bool {
	if len(w.exts) == 0 {
		return true
	}
	return w.exts[strings.ToLower(filepath.Ext(name))]
}

// invalidate drops name from the manager cache under every watched
// directory it belongs to.
func (w *Watcher) invalidate(name string) {
	if w.manager == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, dir := range w.dirs {
		rel, err := filepath.Rel(dir, name)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		w.manager.Invalidate(filepath.ToSlash(rel))
	}
}

// Close stops watching. Run returns once the event channels drain.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.fsw.Close()
}
