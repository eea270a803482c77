package build

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/dtsgen/dts"
	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/logger"
)

// DefaultDebounce collapses editor save bursts into one rebuild
const DefaultDebounce = 200 * time.Millisecond

// ChangeFunc receives the watched files that changed, sorted
type ChangeFunc func(changed []string)

// Watcher reports changes to a fixed set of files. Parent directories are
// watched rather than the files themselves so atomic saves (write to a
// temp file, rename over) are seen.
type Watcher struct {
	watcher        *fsnotify.Watcher
	files          map[string]bool
	onChange       ChangeFunc
	debouncePeriod time.Duration

	mu            sync.Mutex
	pending       map[string]bool
	debounceTimer *time.Timer

	logger *zap.SugaredLogger
}

// NewWatcher creates a watcher for files (absolute paths)
func NewWatcher(files []string, debounce time.Duration, onChange ChangeFunc) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	w := &Watcher{
		watcher:        fw,
		files:          make(map[string]bool, len(files)),
		onChange:       onChange,
		debouncePeriod: debounce,
		pending:        make(map[string]bool),
		logger:         logger.ComponentLogger("watch"),
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		f = filepath.Clean(f)
		w.files[f] = true
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(err, "failed to watch %s", dir)
		}
	}

	return w, nil
}

// Run processes events until ctx is done or the watcher is closed
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(event.Name)
			if !w.files[name] {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			w.logger.Debugw("Detected change",
				logger.FieldFile, name,
				"op", event.Op.String(),
			)
			w.schedule(name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warnw("Watcher error", logger.FieldError, err)
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.watcher.Close()
}

// schedule debounces rapid changes into one callback
func (w *Watcher) schedule(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[name] = true
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debouncePeriod, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	changed := make([]string, 0, len(w.pending))
	for name := range w.pending {
		changed = append(changed, name)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	sort.Strings(changed)
	w.onChange(changed)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
}

// InputPaths returns the absolute input path of every target
func InputPaths(root string, targets []dts.BuildTarget) []string {
	paths := make([]string, 0, len(targets))
	for _, t := range targets {
		paths = append(paths, absInput(root, t))
	}
	return paths
}

// Affected returns the targets whose input is among changed, in target order
func Affected(root string, targets []dts.BuildTarget, changed []string) []dts.BuildTarget {
	set := make(map[string]bool, len(changed))
	for _, c := range changed {
		set[filepath.Clean(c)] = true
	}

	var affected []dts.BuildTarget
	for _, t := range targets {
		if set[absInput(root, t)] {
			affected = append(affected, t)
		}
	}
	return affected
}

func absInput(root string, t dts.BuildTarget) string {
	if filepath.IsAbs(t.Input) {
		return filepath.Clean(t.Input)
	}
	return filepath.Join(root, filepath.FromSlash(t.Input))
}
