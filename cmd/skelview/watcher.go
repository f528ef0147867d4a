// Directory watching for automatic reload.
package main

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/skelview/internal/loader"
	"github.com/Faultbox/skelview/internal/logger"
)

// watcher observes the directories of the loaded inputs and reports, after a
// quiet period, that a reload is due. Events arrive on the fsnotify
// goroutine; the render loop polls ShouldReload once per frame.
type watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}

	mu        sync.Mutex
	dirs      []string
	dirty     bool
	lastEvent time.Time
}

func newWatcher(debounce time.Duration) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &watcher{
		fsw:      fsw,
		debounce: debounce,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// SetDirs replaces the watched directory set.
func (w *watcher) SetDirs(dirs []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, dir := range w.dirs {
		w.fsw.Remove(dir)
	}
	w.dirs = w.dirs[:0]
	seen := make(map[string]bool)
	for _, dir := range dirs {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		if err := w.fsw.Add(dir); err != nil {
			logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.dirs = append(w.dirs, dir)
	}
	w.dirty = false
}

// ShouldReload reports whether asset files changed and the debounce window
// has passed since the last event. The dirty flag resets when it fires, so
// one burst of writes triggers one reload.
func (w *watcher) ShouldReload() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty || time.Since(w.lastEvent) < w.debounce {
		return false
	}
	w.dirty = false
	return true
}

func (w *watcher) Close() {
	close(w.done)
}

func (w *watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !loader.IsAssetFile(event.Name) {
				continue
			}
			w.mu.Lock()
			w.dirty = true
			w.lastEvent = time.Now()
			w.mu.Unlock()
			logger.Debug("asset changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", zap.Error(err))
		case <-w.done:
			w.fsw.Close()
			return
		}
	}
}
