package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	kb := filepath.Join(dir, "kb.yaml")
	if err := os.WriteFile(kb, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	var changed []string
	var mu sync.Mutex
	w, err := NewWatcher([]string{kb}, func(path string) {
		mu.Lock()
		changed = append(changed, path)
		mu.Unlock()
	}, WithDebounce(100*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(kb, []byte{byte('b' + i)}, 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	// unrelated file in the same directory
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(changed) != 1 {
		t.Fatalf("expected one debounced callback, got %v", changed)
	}
	if changed[0] != kb {
		t.Errorf("changed path = %s, want %s", changed[0], kb)
	}
}

func TestWatcher_ReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	kb := filepath.Join(dir, "kb.yaml")
	if err := os.WriteFile(kb, []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	done := make(chan string, 1)
	w, err := NewWatcher([]string{kb}, func(path string) {
		select {
		case done <- path:
		default:
		}
	}, WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	tmp := filepath.Join(dir, "kb.yaml.tmp")
	if err := os.WriteFile(tmp, []byte("b"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, kb); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-done:
		if got != kb {
			t.Errorf("got %s", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no change callback after rename")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, err := NewWatcher([]string{filepath.Join(t.TempDir(), "kb.yaml")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
	if len(w.Files()) != 1 {
		t.Errorf("Files() = %v", w.Files())
	}
}

func TestWatcher_StartMissingDirectory(t *testing.T) {
	w, err := NewWatcher([]string{filepath.Join(t.TempDir(), "missing", "kb.yaml")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Error("expected error for missing directory")
	}
}
