// Package watcher hands images arriving in a directory to a callback once
// their writes have settled.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bstardust/piclabel/internal/fileinfo"
	"github.com/bstardust/piclabel/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// Handler receives the name of a settled image, relative to the watched directory
type Handler func(ctx context.Context, name string)

// Watcher watches one directory for new images
type Watcher struct {
	dir     string
	settle  time.Duration
	watcher *fsnotify.Watcher
}

// New starts watching dir. Events are delivered once Run is called.
func New(dir string, settle time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &Watcher{dir: dir, settle: settle, watcher: fw}, nil
}

// Dir returns the watched directory
func (w *Watcher) Dir() string {
	return w.dir
}

// Run calls handle for every image created or written in the directory,
// settle after its last event. It returns when ctx is done.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	defer w.watcher.Close()

	timers := make(map[string]*time.Timer)
	lastEvent := make(map[string]time.Time)
	ready := make(chan string)

	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			name := event.Name
			if !fileinfo.IsImageFile(name) || fileinfo.IsHidden(name) {
				continue
			}

			switch {
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				logger.Debug("Event %s on %s", event.Op, name)
				lastEvent[name] = time.Now()
				if t, ok := timers[name]; ok && t.Stop() {
					t.Reset(w.settle)
					continue
				}
				timers[name] = time.AfterFunc(w.settle, func() {
					select {
					case ready <- name:
					case <-ctx.Done():
					}
				})

			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				if t, ok := timers[name]; ok {
					t.Stop()
				}
				delete(timers, name)
				delete(lastEvent, name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error on %s: %v", w.dir, err)

		case name := <-ready:
			last, ok := lastEvent[name]
			if !ok || time.Since(last) < w.settle {
				// removed, or a newer timer is pending
				continue
			}
			delete(timers, name)
			delete(lastEvent, name)

			rel, err := filepath.Rel(w.dir, name)
			if err != nil {
				rel = filepath.Base(name)
			}
			handle(ctx, filepath.ToSlash(rel))
		}
	}
}
