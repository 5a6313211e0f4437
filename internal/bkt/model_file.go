package bkt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// modelFile is the on-disk shape of a trained BKT model:
//
//	{"skill_parameters": {"sk-abc12": {"P_L0": 0.15, "P_T": 0.3, "P_G": 0.2, "P_S": 0.1}, ...}}
type modelFile struct {
	SkillParameters map[string]Params `json:"skill_parameters"`
}

// ParamSource serves per-skill BKT parameters. The zero value serves defaults
// for every skill; LoadFile swaps in trained parameters, and Watch keeps them
// current when a retrained model lands on disk.
type ParamSource struct {
	mu     sync.RWMutex
	params map[string]Params
	path   string

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewParamSource returns a source that serves DefaultParams for every skill.
func NewParamSource() *ParamSource {
	return &ParamSource{params: make(map[string]Params)}
}

// For returns the parameters for a skill, falling back to defaults.
func (s *ParamSource) For(skillID string) Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.params[skillID]; ok {
		return p
	}
	return DefaultParams()
}

// Trained reports whether the skill has trained (non-default) parameters.
func (s *ParamSource) Trained(skillID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.params[skillID]
	return ok
}

// LoadFile replaces the parameter table from a trained model file.
// A missing file is not an error: the source keeps serving defaults.
func (s *ParamSource) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read bkt model: %w", err)
	}

	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return fmt.Errorf("failed to parse bkt model %s: %w", path, err)
	}

	s.mu.Lock()
	s.path = path
	s.params = mf.SkillParameters
	if s.params == nil {
		s.params = make(map[string]Params)
	}
	s.mu.Unlock()
	return nil
}

// Watch reloads the model whenever the file changes, so a retrained model
// takes effect without a restart. Watches the directory rather than the file
// because trainers typically replace the file via rename.
func (s *ParamSource) Watch(path string) error {
	if err := s.LoadFile(path); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	s.mu.Lock()
	s.watcher = watcher
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		target := filepath.Clean(path)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					// Best effort: a torn read is retried on the next event
					_ = s.LoadFile(path)
				}
			case <-watcher.Errors:
				// Watcher errors are non-fatal; parameters stay at the last good load
			case <-done:
				return
			}
		}
	}()
	return nil
}

// Close stops the watcher if one is running.
func (s *ParamSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	if s.watcher != nil {
		err := s.watcher.Close()
		s.watcher = nil
		return err
	}
	return nil
}
