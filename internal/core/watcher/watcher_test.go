package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"baseline/internal/shared/util"
)

func jsFilter(t *testing.T) *util.PathFilter {
	t.Helper()
	f, err := util.NewPathFilter([]string{"node_modules"}, []string{"*.exclude.js"}, []string{".js", ".ts"}, true, 0)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func waitFor(t *testing.T, ch <-chan []string, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case paths := <-ch:
			for _, p := range paths {
				if p == want {
					return
				}
			}
		case <-deadline:
			t.Fatalf("timed out waiting for change event for %s", want)
		}
	}
}

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(100*time.Millisecond, nil, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(100*time.Millisecond, jsFilter(t), func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "app.js")
	if err := os.WriteFile(testFile, []byte("[1].at(-1);\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, testFile, 2*time.Second)

	excludeFile := filepath.Join(tmpDir, "vendor.exclude.js")
	if err := os.WriteFile(excludeFile, []byte("x;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	other := filepath.Join(tmpDir, "notes.md")
	if err := os.WriteFile(other, []byte("# notes\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			if p == excludeFile || p == other {
				t.Errorf("filtered file triggered event: %s", p)
			}
		}
	case <-time.After(500 * time.Millisecond):
	}

	// New directories are watched recursively once created.
	subdir := filepath.Join(tmpDir, "src", "lib")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(150 * time.Millisecond)
	nested := filepath.Join(subdir, "util.ts")
	if err := os.WriteFile(nested, []byte("export const x = 1;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, nested, 2*time.Second)
}

func TestWatcher_RemoveTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "gone.js")
	if err := os.WriteFile(target, []byte("a;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, jsFilter(t), func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(target); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, target, 2*time.Second)
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()
	oldPath := filepath.Join(tmpDir, "old.js")
	if err := os.WriteFile(oldPath, []byte("b;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, jsFilter(t), func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	newPath := filepath.Join(tmpDir, "new.js")
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}
	waitFor(t, changedFiles, newPath, 2*time.Second)
}

func TestWatcher_SkipsExcludedDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	deps := filepath.Join(tmpDir, "node_modules", "pkg")
	if err := os.MkdirAll(deps, 0o755); err != nil {
		t.Fatal(err)
	}

	changedFiles := make(chan []string, 4)
	w, err := NewWatcher(50*time.Millisecond, jsFilter(t), func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(deps, "index.js"), []byte("c;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case paths := <-changedFiles:
		t.Fatalf("unexpected event from excluded directory: %v", paths)
	case <-time.After(300 * time.Millisecond):
	}
}
