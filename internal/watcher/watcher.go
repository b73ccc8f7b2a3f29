package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period used when Options.Debounce is
// unset. Raw filesystem events can fire several times per logical
// change; everything within the window collapses into one evaluation.
const DefaultDebounce = 100 * time.Millisecond

// ErrTargetMissing indicates the database file or its directory did not
// exist when the watch was requested.
var ErrTargetMissing = errors.New("watch target does not exist")

// Options configures a watch session.
type Options struct {
	// Debounce is the event coalescing window; zero selects
	// DefaultDebounce.
	Debounce time.Duration
	// OnDeletion, if set, is invoked (at most once per session) with
	// the missing path, in addition to the Deletions channel.
	OnDeletion func(path string)
	// Logger receives incident logs; nil disables logging.
	Logger *zap.SugaredLogger
}

// Watch is an active deletion watch. It is an owned handle: callers
// create it with StartWatching and release it with Stop. One handle
// watches one database.
type Watch struct {
	dbPath     string
	dir        string
	fw         *fsnotify.Watcher
	debounce   time.Duration
	onDeletion func(string)
	log        *zap.SugaredLogger

	deletions chan string
	stopCh    chan struct{}
	wg        sync.WaitGroup

	mu       sync.Mutex
	detected bool
	stopped  bool
}

// StartWatching registers a directory-level watch covering dbPath and
// its WAL/SHM companions. It fails fast if the database file or its
// directory does not yet exist.
func StartWatching(dbPath string, opts Options) (*Watch, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: directory %s", ErrTargetMissing, dir)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrTargetMissing, dbPath)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watch{
		dbPath:     dbPath,
		dir:        dir,
		fw:         fw,
		debounce:   opts.Debounce,
		onDeletion: opts.OnDeletion,
		log:        opts.Logger,
		deletions:  make(chan string, 1),
		stopCh:     make(chan struct{}),
	}

	w.wg.Add(1)
	go w.run()

	w.log.Infow("deletion watch started", "path", dbPath)
	return w, nil
}

// watchedNames returns the basenames of the database triad.
func (w *Watch) watchedNames() []string {
	base := filepath.Base(w.dbPath)
	return []string{base, base + "-wal", base + "-shm"}
}

// run consumes raw events, debouncing them into evaluations. The
// debounce timer serializes deletion handling: at most one evaluation
// is ever in flight.
func (w *Watch) run() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	// pending accumulates triad basenames removed since the last
	// evaluation.
	pending := make(map[string]bool)

	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.isRelevant(event) {
				continue
			}
			pending[filepath.Base(event.Name)] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			w.evaluate(pending)
			pending = make(map[string]bool)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warnw("filesystem watch error", "error", err)

		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevant reports whether an event could indicate removal of one of
// the three database files.
func (w *Watch) isRelevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	for _, watched := range w.watchedNames() {
		if name == watched {
			return true
		}
	}
	return false
}

// evaluate re-checks existence of the files named in removal events.
// The first confirmed absence sets the sticky flag and notifies once.
func (w *Watch) evaluate(pending map[string]bool) {
	w.mu.Lock()
	already := w.detected
	w.mu.Unlock()
	if already {
		return
	}

	for name := range pending {
		path := filepath.Join(w.dir, name)
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			// Recreated within the debounce window; not a deletion.
			continue
		}

		w.mu.Lock()
		w.detected = true
		w.mu.Unlock()

		w.log.Errorw("database file deleted", "path", path)
		select {
		case w.deletions <- path:
		default:
		}
		if w.onDeletion != nil {
			w.onDeletion(path)
		}
		return
	}
}

// Deletions returns the notification channel. It receives at most one
// path per watch session and is closed by Stop.
func (w *Watch) Deletions() <-chan string {
	return w.deletions
}

// DeletionDetected reports the sticky flag. Once set it stays set until
// the watch is stopped and a new one started.
func (w *Watch) DeletionDetected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.detected
}

// Path returns the watched database path.
func (w *Watch) Path() string {
	return w.dbPath
}

// IsWatching reports whether the watch is still active.
func (w *Watch) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return !w.stopped
}

// Stop cancels the watch, the pending debounce timer, and closes the
// notification channel. The handle cannot be reused afterwards.
func (w *Watch) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	w.mu.Unlock()

	close(w.stopCh)
	err := w.fw.Close()
	w.wg.Wait()
	close(w.deletions)

	w.log.Infow("deletion watch stopped", "path", w.dbPath)
	if err != nil {
		return fmt.Errorf("failed to close filesystem watcher: %w", err)
	}
	return nil
}
