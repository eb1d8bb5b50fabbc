// Package watch reports changes to a small set of files, such as the config
// file and a local icon font, so the generator can re-render on edit.
//
// Each file's parent directory is watched with fsnotify and events are
// filtered by name, which also catches editors that save by writing a
// temporary file and renaming it over the original. When fsnotify is
// unavailable or fails, the watcher falls back to polling modification times.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the duration between stat calls in polling mode.
const DefaultPollInterval = 2 * time.Second

// ///////////////////////////////////////////////
// Watcher
// ///////////////////////////////////////////////

// Watcher monitors files for changes using fsnotify with a polling fallback.
type Watcher struct {
	// files holds the absolute paths being monitored.
	files map[string]bool
	// events delivers a signal each time a watched file changes.
	// The channel is buffered to 1 so back-to-back writes coalesce.
	events chan struct{}
	// done is closed by [Watcher.Close] to signal goroutines to exit.
	done chan struct{}
	// mu guards fsw, which is swapped to nil on fallback.
	mu sync.Mutex
	// fsw is the underlying fsnotify watcher; nil when polling.
	fsw *fsnotify.Watcher
	// once ensures [Watcher.Close] is idempotent.
	once sync.Once
	// polling is true when the watcher has fallen back to stat-based polling.
	polling atomic.Bool
	// pollInterval is the duration between stat calls in polling mode.
	pollInterval time.Duration
	// logger receives fallback notices.
	logger *slog.Logger
}

// Option configures a [Watcher].
type Option func(*Watcher)

// WithPollInterval sets the polling fallback interval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithLogger sets the logger for fallback notices. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithPolling skips fsnotify and polls from the start.
func WithPolling() Option {
	return func(w *Watcher) { w.polling.Store(true) }
}

// New creates a Watcher for the given files. Files need not exist yet, but
// their directories should.
func New(files []string, opts ...Option) (*Watcher, error) {
	if len(files) == 0 {
		return nil, errors.New("watch: no files given")
	}
	w := &Watcher{
		files:        make(map[string]bool, len(files)),
		events:       make(chan struct{}, 1),
		done:         make(chan struct{}),
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %s: %w", f, err)
		}
		w.files[abs] = true
	}

	if w.polling.Load() {
		go w.poll()
		return w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Info("fsnotify unavailable, falling back to polling", "error", err)
		w.polling.Store(true)
		go w.poll()
		return w, nil
	}

	for dir := range w.dirs() {
		if err := fsw.Add(dir); err != nil {
			w.logger.Info("cannot watch directory, falling back to polling", "path", dir, "error", err)
			fsw.Close()
			w.polling.Store(true)
			go w.poll()
			return w, nil
		}
	}

	w.fsw = fsw
	go w.watch(fsw)
	return w, nil
}

// dirs returns the set of parent directories of the watched files.
func (w *Watcher) dirs() map[string]bool {
	out := make(map[string]bool, len(w.files))
	for f := range w.files {
		out[filepath.Dir(f)] = true
	}
	return out
}

// Polling reports whether the watcher is using polling instead of fsnotify.
func (w *Watcher) Polling() bool {
	return w.polling.Load()
}

// Events returns a channel that receives a signal when a watched file changes.
func (w *Watcher) Events() <-chan struct{} {
	return w.events
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.fsw != nil {
			if closeErr := w.fsw.Close(); closeErr != nil {
				err = fmt.Errorf("closing fsnotify watcher: %w", closeErr)
			}
			w.fsw = nil
		}
	})
	return err
}

// watch loops over fsnotify events and forwards write, create and rename
// notifications for watched files. If fsnotify reports an error, watch
// closes the native watcher and falls back to [Watcher.poll].
func (w *Watcher) watch(fsw *fsnotify.Watcher) {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !w.files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.notify()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Info("fsnotify error, switching to polling", "error", err)
			w.mu.Lock()
			if w.fsw != nil {
				w.fsw.Close()
				w.fsw = nil
			}
			w.mu.Unlock()
			w.polling.Store(true)
			go w.poll()
			return
		}
	}
}

// poll periodically stats the watched files and sends a notification when
// any modification time or size changes.
func (w *Watcher) poll() {
	last := w.snapshot()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			cur := w.snapshot()
			if cur != last {
				last = cur
				w.notify()
			}
		}
	}
}

// stamp summarizes the observable state of the watched files.
type stamp struct {
	latest time.Time
	size   int64
	count  int
}

func (w *Watcher) snapshot() stamp {
	var s stamp
	for f := range w.files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		s.count++
		s.size += info.Size()
		if info.ModTime().After(s.latest) {
			s.latest = info.ModTime()
		}
	}
	return s
}

// notify sends a single signal to the events channel. If a signal is already
// pending the call is a no-op, coalescing rapid successive changes.
func (w *Watcher) notify() {
	select {
	case w.events <- struct{}{}:
	default:
		// Channel already has a pending event, skip
	}
}
