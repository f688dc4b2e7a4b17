// Package watcher provides debounced file system watching for the loaded
// file-set root, so the index can be rebuilt when files change on disk.
package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"quadview/internal/pubsub"
)

// EventType classifies watcher notifications.
type EventType int

const (
	// FileSetChanged signals that something under the root was written,
	// created, removed, or renamed.
	FileSetChanged EventType = iota
	// WatcherError signals an fsnotify error; watching continues.
	WatcherError
)

// Event is the payload delivered through the broker.
type Event struct {
	Type  EventType
	Error error
}

// Watcher monitors a file-set root and publishes debounced change events.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	root      string
	debounce  time.Duration
	broker    *pubsub.Broker[Event]
	done      chan struct{}
}

// Config holds watcher configuration options.
type Config struct {
	Root        string
	DebounceDur time.Duration
}

// DefaultConfig returns sensible defaults for the watcher.
func DefaultConfig(root string) Config {
	return Config{
		Root:        root,
		DebounceDur: 1 * time.Second,
	}
}

// New creates a new file-set watcher.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		root:      cfg.Root,
		debounce:  cfg.DebounceDur,
		broker:    pubsub.NewBroker[Event](),
		done:      make(chan struct{}),
	}, nil
}

// Broker exposes the event broker for subscription.
func (w *Watcher) Broker() *pubsub.Broker[Event] {
	return w.broker
}

// Start begins watching the root and its study/series subdirectories.
func (w *Watcher) Start() error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop terminates the watcher and releases resources.
func (w *Watcher) Stop() error {
	close(w.done)
	w.broker.Close()
	return w.fsWatcher.Close()
}

// addRecursive registers the root plus two levels of subdirectories
// (study and series directories - the layout the loader understands).
func (w *Watcher) addRecursive(root string) error {
	if err := w.fsWatcher.Add(root); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}

	studies, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", root, err)
	}
	for _, st := range studies {
		if !st.IsDir() {
			continue
		}
		studyDir := filepath.Join(root, st.Name())
		if err := w.fsWatcher.Add(studyDir); err != nil {
			continue // A vanished directory is not fatal
		}
		series, err := os.ReadDir(studyDir)
		if err != nil {
			continue
		}
		for _, se := range series {
			if se.IsDir() {
				_ = w.fsWatcher.Add(filepath.Join(studyDir, se.Name()))
			}
		}
	}
	return nil
}

// loop processes file system events with debouncing.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending bool
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = true
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
				pending = true
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if pending {
				w.broker.Publish(pubsub.UpdatedEvent, Event{Type: FileSetChanged})
				pending = false
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.broker.Publish(pubsub.ErrorEvent, Event{Type: WatcherError, Error: err})

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
