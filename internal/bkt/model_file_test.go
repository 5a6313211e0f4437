package bkt

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleModel = `{
  "skill_parameters": {
    "sk-abc12": {"P_L0": 0.25, "P_T": 0.4, "P_G": 0.15, "P_S": 0.05}
  }
}`

func TestParamSourceDefaults(t *testing.T) {
	s := NewParamSource()
	got := s.For("sk-unknown")
	if got != DefaultParams() {
		t.Errorf("For(unknown) = %+v, want defaults", got)
	}
	if s.Trained("sk-unknown") {
		t.Error("unknown skill reported as trained")
	}
}

func TestParamSourceLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bkt_model.json")
	if err := os.WriteFile(path, []byte(sampleModel), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewParamSource()
	if err := s.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	got := s.For("sk-abc12")
	if got.InitialProb != 0.25 || got.TransitionProb != 0.4 || got.GuessProb != 0.15 || got.SlipProb != 0.05 {
		t.Errorf("For(sk-abc12) = %+v", got)
	}
	if !s.Trained("sk-abc12") {
		t.Error("loaded skill should report trained")
	}

	// Other skills still get defaults
	if s.For("sk-other") != DefaultParams() {
		t.Error("unloaded skill should fall back to defaults")
	}
}

func TestParamSourceMissingFile(t *testing.T) {
	s := NewParamSource()
	if err := s.LoadFile(filepath.Join(t.TempDir(), "absent.json")); err != nil {
		t.Errorf("missing model file should not error, got %v", err)
	}
	if s.For("sk-1") != DefaultParams() {
		t.Error("missing file should leave defaults in place")
	}
}

func TestParamSourceBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewParamSource()
	if err := s.LoadFile(path); err == nil {
		t.Error("expected parse error for malformed model file")
	}
}

func TestParamSourceWatchReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bkt_model.json")

	s := NewParamSource()
	if err := s.Watch(path); err != nil {
		t.Fatalf("Watch() error: %v", err)
	}
	defer s.Close()

	if s.Trained("sk-abc12") {
		t.Fatal("no model yet, nothing should be trained")
	}

	// Model lands after the watch started
	if err := os.WriteFile(path, []byte(sampleModel), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Trained("sk-abc12") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("watcher did not pick up the new model file")
}
