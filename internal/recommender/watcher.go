package recommender

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/LyoshaGodX/adaptivelearn/internal/debug"
)

// Watcher reloads a policy's weights whenever its model file changes on
// disk, so a freshly trained model takes effect without restarting the
// server. The directory is watched rather than the file because training
// replaces the file via rename.
type Watcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchModel loads the model file into the policy and keeps it current.
func WatchModel(policy *Policy, path string) (*Watcher, error) {
	if err := policy.LoadFile(path); err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w := &Watcher{watcher: fw, done: make(chan struct{})}
	go func() {
		target := filepath.Clean(path)
		for {
			select {
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					if err := policy.LoadFile(path); err != nil {
						debug.Logf("policy reload failed: %v", err)
					} else {
						debug.Logf("policy model reloaded from %s", path)
					}
				}
			case <-fw.Errors:
				// Non-fatal; the policy keeps its last good weights
			case <-w.done:
				return
			}
		}
	}()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
