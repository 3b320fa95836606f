// Package watcher reports debounced changes to the config file and the
// scenario scripts navsim is running.
package watcher

import (
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/roomflow/internal/log"
)

// Watcher watches a fixed set of files. Editors replace files rather than
// writing them in place, so the parent directories are watched and events
// are filtered by name.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	files     []string
	debounce  time.Duration
	onChange  chan []string
	done      chan struct{}
}

type Config struct {
	Files       []string
	DebounceDur time.Duration
}

func DefaultConfig(files ...string) Config {
	return Config{
		Files:       files,
		DebounceDur: 300 * time.Millisecond,
	}
}

func New(cfg Config) (*Watcher, error) {
	if len(cfg.Files) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	files := make([]string, 0, len(cfg.Files))
	for _, f := range cfg.Files {
		files = append(files, filepath.Clean(f))
	}
	return &Watcher{
		fsWatcher: fsw,
		files:     files,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan []string, 1),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel receives the sorted set of
// files changed during each quiet period.
func (w *Watcher) Start() (<-chan []string, error) {
	var dirs []string
	for _, f := range w.files {
		dir := filepath.Dir(f)
		if slices.Contains(dirs, dir) {
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
		dirs = append(dirs, dir)
	}

	go w.loop()
	return w.onChange, nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		changed []string
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			name, relevant := w.relevant(event)
			if !relevant {
				continue
			}
			if !slices.Contains(changed, name) {
				changed = append(changed, name)
			}
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
			if len(changed) == 0 {
				continue
			}
			slices.Sort(changed)
			select {
			case w.onChange <- changed:
			default:
				log.Debug(log.CatWatcher, "change notification dropped, receiver busy", "files", changed)
			}
			changed = nil

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return "", false
	}
	name := filepath.Clean(event.Name)
	return name, slices.Contains(w.files, name)
}
