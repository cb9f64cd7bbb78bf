// Package filewatch bridges fsnotify file-system events into a reactive
// source, so a StateContainer can watch for config/asset file changes the
// same way it watches any other Value or EventChannel — an addition
// SPEC_FULL.md §B.3 makes; the core spec never describes a filesystem
// source, but the pattern (external event producer feeding a container
// through a callback) is the same as bridge/cron's Dispatcher.
package filewatch

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// FileState is the last observed fsnotify event for one watched path.
type FileState struct {
	Path string
	Op   fsnotify.Op
}

// Watcher owns one fsnotify.Watcher and dispatches every event it reports
// to onEvent, which a caller typically wires to Update a StateContainer
// (updating a Value[FileState] or sending on an EventChannel[FileState]).
// Errors are forwarded to onError rather than silently dropped, since a
// watch failure (e.g. the underlying inode was replaced rather than
// written) can mean silently losing all future events for that path.
type Watcher struct {
	w       *fsnotify.Watcher
	onEvent func(FileState)
	onError func(error)
	done    chan struct{}
}

// NewWatcher creates an fsnotify-backed watcher. The background goroutine
// is started by Start, not here, so callers can register onEvent/onError
// and Add paths before any events can arrive.
func NewWatcher(onEvent func(FileState), onError func(error)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("reactor/bridge/filewatch: new watcher: %w", err)
	}
	return &Watcher{w: w, onEvent: onEvent, onError: onError, done: make(chan struct{})}, nil
}

// Add begins watching path (a file or directory, per fsnotify's own
// semantics).
func (fw *Watcher) Add(path string) error {
	if err := fw.w.Add(path); err != nil {
		return fmt.Errorf("reactor/bridge/filewatch: watch %s: %w", path, err)
	}
	return nil
}

// Remove stops watching path.
func (fw *Watcher) Remove(path string) error {
	return fw.w.Remove(path)
}

// Start runs the dispatch loop in a new goroutine until Close is called.
func (fw *Watcher) Start() {
	go fw.run()
}

func (fw *Watcher) run() {
	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if fw.onEvent != nil {
				fw.onEvent(FileState{Path: ev.Name, Op: ev.Op})
			}
		case err, ok := <-fw.w.Errors:
			if !ok {
				return
			}
			if fw.onError != nil {
				fw.onError(err)
			}
		case <-fw.done:
			return
		}
	}
}

// Close stops the dispatch loop and releases the underlying OS watch
// handles.
func (fw *Watcher) Close() error {
	close(fw.done)
	return fw.w.Close()
}
