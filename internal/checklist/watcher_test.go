package checklist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestWatcher_ReportsProgress(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TODO.md")
	if err := os.WriteFile(path, []byte("- [ ] a\n- [ ] b\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	w, err := NewWatcher(NewOracle(afero.NewOsFs(), path), nil)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	defer w.Stop()

	updates := make(chan Counts, 10)
	w.SetProgressCallback(func(c Counts) { updates <- c })

	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	select {
	case c := <-updates:
		if c != (Counts{Unchecked: 2}) {
			t.Errorf("initial counts = %+v, want 2 unchecked", c)
		}
	case <-time.After(time.Second):
		t.Fatal("no initial progress reported")
	}

	if err := os.WriteFile(path, []byte("- [x] a\n- [ ] b\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case c := <-updates:
			if c == (Counts{Unchecked: 1, Checked: 1}) {
				return
			}
		case <-deadline:
			t.Fatal("progress after edit was not reported")
		}
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TODO.md")
	if err := os.WriteFile(path, []byte("- [ ] a\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	w, err := NewWatcher(NewOracle(afero.NewOsFs(), path), nil)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	defer w.Stop()

	updates := make(chan Counts, 10)
	w.SetProgressCallback(func(c Counts) { updates <- c })
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	<-updates

	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("- [x] other\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	select {
	case c := <-updates:
		t.Errorf("unexpected progress %+v from unrelated file", c)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "TODO.md")
	_ = os.WriteFile(path, []byte("- [ ] a\n"), 0644)

	w, err := NewWatcher(NewOracle(afero.NewOsFs(), path), nil)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	w.Stop()
	w.Stop()
}
