package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/neboloop/cell/internal/logging"
)

// Watcher reloads a config file whenever it changes on disk.
type Watcher struct {
	watcher *fsnotify.Watcher
	once    sync.Once
}

// Watch overlays path onto base on every write and hands the result to
// onChange. Invalid files are logged and skipped. The parent directory is
// watched so editors that replace the file on save are still seen.
func Watch(base Config, path string, onChange func(Config)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", filepath.Dir(abs), err)
	}

	go func() {
		var debounceTimer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					// Editors may write multiple times
					if debounceTimer != nil {
						debounceTimer.Stop()
					}
					debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
						c, err := LoadFrom(base, abs)
						if err != nil {
							logging.Warnf("[config] reload of %s failed: %v", abs, err)
							return
						}
						logging.Infof("[config] %s reloaded", abs)
						onChange(c)
					})
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Errorf("[config] Watcher error: %v", err)
			}
		}
	}()

	logging.Infof("[config] Watching %s for changes", abs)
	return &Watcher{watcher: watcher}, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		err = w.watcher.Close()
	})
	return err
}
