// internal/trigger/filesystem.go
package trigger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/upliftd/uplift/internal/config"
)

// Filesystem watches directories for file events
type Filesystem struct {
	remoteName      string
	watchPaths      []string
	onEvents        map[string]bool
	ignorePatterns  []string
	debounceSeconds int
	watcher         *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	started bool
	closed  bool
}

// NewFilesystem creates a new filesystem trigger. When the config names no
// watch_paths the remote's source directory is watched instead, so that new
// files landing in the staging area kick off an offload.
func NewFilesystem(remoteName string, cfg config.Trigger, sourcePath string) (*Filesystem, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	onEvents := make(map[string]bool)
	for _, e := range cfg.OnEvents {
		onEvents[e] = true
	}
	if len(onEvents) == 0 {
		onEvents["file_created"] = true
		onEvents["directory_created"] = true
	}

	var watchPaths []string
	for _, p := range cfg.WatchPaths {
		watchPaths = append(watchPaths, expandHome(p))
	}
	if len(watchPaths) == 0 && sourcePath != "" {
		watchPaths = []string{expandHome(sourcePath)}
	}

	return &Filesystem{
		remoteName:      remoteName,
		watchPaths:      watchPaths,
		onEvents:        onEvents,
		ignorePatterns:  cfg.IgnorePatterns,
		debounceSeconds: cfg.DebounceSeconds,
		watcher:         watcher,
		pending:         make(map[string]*time.Timer),
	}, nil
}

func (f *Filesystem) RemoteName() string {
	return f.remoteName
}

func (f *Filesystem) Start(ctx context.Context, events chan<- Event) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return errors.New("filesystem trigger already started")
	}
	f.started = true
	f.mu.Unlock()

	for _, path := range f.watchPaths {
		if err := f.watcher.Add(path); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-f.watcher.Events:
			if !ok {
				return nil
			}
			f.handleEvent(event, events)
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return nil
			}
			// watcher errors are transient, keep going
			_ = err
		}
	}
}

func (f *Filesystem) Stop() error {
	f.mu.Lock()
	for path, timer := range f.pending {
		timer.Stop()
		delete(f.pending, path)
	}
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	return f.watcher.Close()
}

func (f *Filesystem) handleEvent(fsEvent fsnotify.Event, events chan<- Event) {
	var eventType string
	switch {
	case fsEvent.Op&fsnotify.Create != 0:
		if info, err := os.Stat(fsEvent.Name); err == nil && info.IsDir() {
			eventType = "directory_created"
		} else {
			eventType = "file_created"
		}
	case fsEvent.Op&fsnotify.Write != 0:
		eventType = "file_modified"
	case fsEvent.Op&fsnotify.Remove != 0:
		eventType = "file_deleted"
	default:
		return
	}

	if !f.onEvents[eventType] {
		return
	}

	filename := filepath.Base(fsEvent.Name)
	for _, pattern := range f.ignorePatterns {
		if matched, _ := filepath.Match(pattern, filename); matched {
			return
		}
	}

	if f.debounceSeconds > 0 {
		f.debounce(fsEvent.Name, eventType, events)
		return
	}

	f.sendEvent(fsEvent.Name, eventType, events)
}

// debounce coalesces rapid events for the same path, firing once after the
// quiet period. Partially-written downloads produce many Write events; only
// the last one matters.
func (f *Filesystem) debounce(path, eventType string, events chan<- Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if timer, exists := f.pending[path]; exists {
		timer.Stop()
	}

	f.pending[path] = time.AfterFunc(time.Duration(f.debounceSeconds)*time.Second, func() {
		f.mu.Lock()
		delete(f.pending, path)
		f.mu.Unlock()
		f.sendEvent(path, eventType, events)
	})
}

func (f *Filesystem) sendEvent(path, eventType string, events chan<- Event) {
	select {
	case events <- Event{
		RemoteName: f.remoteName,
		Type:       eventType,
		Timestamp:  time.Now(),
		Data: map[string]any{
			"file_path":  path,
			"file_name":  filepath.Base(path),
			"event_type": eventType,
		},
	}:
	default:
		// channel full, drop event
	}
}

// expandHome resolves a leading ~ to the current user's home directory.
func expandHome(path string) string {
	if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return path
	}
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
