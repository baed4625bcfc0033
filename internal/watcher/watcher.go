// Package watcher reports changes to the directory being browsed: with
// fsnotify for local directories and by polling listings for remote
// ones. Bursts of events are debounced into one notification.
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/models"
)

const (
	DefaultDebounce     = 500 * time.Millisecond
	DefaultPollInterval = 5 * time.Second
)

// Lister lists a remote directory.
type Lister func(ctx context.Context) ([]models.FileItem, error)

// Options tunes timing. Zero values use the defaults.
type Options struct {
	Debounce     time.Duration
	PollInterval time.Duration
}

// Watcher follows one directory at a time. onChange is called from a
// watcher goroutine with the directory that changed.
type Watcher struct {
	fs       *fsnotify.Watcher
	onChange func(dir string)
	opts     Options
	log      *zap.Logger

	mu         sync.Mutex
	dir        string
	timer      *time.Timer
	stopRemote context.CancelFunc
	done       chan struct{}
}

// New starts the fsnotify event loop.
func New(onChange func(dir string), opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{fs: fw, onChange: onChange, opts: opts, log: logging.Named("watcher"), done: make(chan struct{})}
	go w.run()
	return w, nil
}

func ignored(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".tmp")
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ignored(event.Name) {
				continue
			}
			w.mu.Lock()
			dir := w.dir
			w.mu.Unlock()
			if dir != "" && filepath.Dir(event.Name) == dir {
				w.schedule(dir)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("fsnotify error", logging.Err(err))
		}
	}
}

// schedule restarts the debounce timer for dir.
func (w *Watcher) schedule(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		current := w.dir
		w.mu.Unlock()
		if current == dir {
			w.onChange(dir)
		}
	})
}

// WatchLocal follows a local directory, replacing any previous watch.
func (w *Watcher) WatchLocal(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	w.Stop()
	if err := w.fs.Add(abs); err != nil {
		return err
	}
	w.mu.Lock()
	w.dir = abs
	w.mu.Unlock()
	w.log.Debug("watching", logging.String("dir", abs))
	return nil
}

// WatchRemote polls list and reports dir whenever the listing changes.
func (w *Watcher) WatchRemote(dir string, list Lister) {
	w.Stop()
	ctx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.dir = dir
	w.stopRemote = cancel
	w.mu.Unlock()

	go func() {
		ticker := time.NewTicker(w.opts.PollInterval)
		defer ticker.Stop()
		var last map[string]fileSnapshot
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				files, err := list(ctx)
				if err != nil {
					continue
				}
				current := snapshotOf(files)
				if last != nil && changed(last, current) {
					w.schedule(dir)
				}
				last = current
			}
		}
	}()
}

// Stop drops the current watch.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.stopRemote != nil {
		w.stopRemote()
		w.stopRemote = nil
	}
	w.dir = ""
	w.mu.Unlock()

	// outside the lock: the event goroutine may be waiting for it
	for _, p := range w.fs.WatchList() {
		w.fs.Remove(p)
	}
}

// Close stops watching and releases the fsnotify handle.
func (w *Watcher) Close() error {
	w.Stop()
	err := w.fs.Close()
	<-w.done
	return err
}

type fileSnapshot struct {
	Size    int64
	ModTime time.Time
	IsDir   bool
}

func snapshotOf(files []models.FileItem) map[string]fileSnapshot {
	m := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		m[f.Name] = fileSnapshot{Size: f.Size, ModTime: f.Modified, IsDir: f.IsDir}
	}
	return m
}

func changed(old, current map[string]fileSnapshot) bool {
	if len(old) != len(current) {
		return true
	}
	for name, cur := range current {
		prev, ok := old[name]
		if !ok || prev.Size != cur.Size || prev.IsDir != cur.IsDir || !prev.ModTime.Equal(cur.ModTime) {
			return true
		}
	}
	return false
}
