// Package watcher reports changes to individual files using fsnotify.
//
// The containing directory is watched rather than the file itself, so
// editors that save by writing a temporary file and renaming it over
// the original are still seen.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/sketchplane/internal/logger"
)

// FileWatcher debounces change events for a set of files and delivers
// the changed path on a channel. Pending changes to the same file are
// coalesced; a slow reader never blocks the watcher.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	changes  chan string

	mu     sync.Mutex
	files  map[string]bool
	dirs   map[string]bool
	timers map[string]*time.Timer
	closed bool

	done chan struct{}
}

// New creates a watcher and starts its event loop.
func New(debounce time.Duration) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:  w,
		debounce: debounce,
		changes:  make(chan string, 8),
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}
	go fw.loop()
	return fw, nil
}

// Changes delivers the absolute path of each changed file.
func (fw *FileWatcher) Changes() <-chan string {
	return fw.changes
}

// Watch adds a file.
func (fw *FileWatcher) Watch(file string) error {
	abs, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve path %s: %w", file, err)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()

	dir := filepath.Dir(abs)
	if !fw.dirs[dir] {
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		fw.dirs[dir] = true
	}
	fw.files[abs] = true
	logger.Debug("watching file", zap.String("path", abs))
	return nil
}

func (fw *FileWatcher) loop() {
	defer close(fw.done)
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				fw.handle(filepath.Clean(event.Name))
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (fw *FileWatcher) handle(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.closed || !fw.files[path] {
		return
	}
	if t, ok := fw.timers[path]; ok {
		t.Stop()
	}
	fw.timers[path] = time.AfterFunc(fw.debounce, func() {
		fw.emit(path)
	})
}

func (fw *FileWatcher) emit(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	delete(fw.timers, path)
	if fw.closed {
		return
	}
	select {
	case fw.changes <- path:
	default:
		logger.Debug("change dropped, reader behind", zap.String("path", path))
	}
}

// Close stops the watcher and closes the Changes channel.
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	if fw.closed {
		fw.mu.Unlock()
		return nil
	}
	fw.closed = true
	for _, t := range fw.timers {
		t.Stop()
	}
	fw.mu.Unlock()

	err := fw.watcher.Close()
	<-fw.done

	fw.mu.Lock()
	close(fw.changes)
	fw.mu.Unlock()
	return err
}
