package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"comfyui-data-manager/internal/models"
)

func TestWatchLocal(t *testing.T) {
	dir := t.TempDir()
	events := make(chan string, 10)
	w, err := New(func(d string) { events <- d }, Options{Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer w.Close()

	if err := w.WatchLocal(dir); err != nil {
		t.Fatalf("WatchLocal failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		os.WriteFile(filepath.Join(dir, "out"+string(rune('a'+i))+".png"), []byte("x"), 0644)
	}

	abs, _ := filepath.Abs(dir)
	select {
	case got := <-events:
		if got != abs {
			t.Errorf("Expected %s, got %s", abs, got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Expected a change notification")
	}

	// the burst is coalesced
	select {
	case <-events:
		t.Error("Expected a single debounced notification")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestStopSilences(t *testing.T) {
	dir := t.TempDir()
	events := make(chan string, 10)
	w, err := New(func(d string) { events <- d }, Options{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.WatchLocal(dir); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0644)
	select {
	case <-events:
		t.Error("Expected no notification after Stop")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchRemote(t *testing.T) {
	var mu sync.Mutex
	files := []models.FileItem{{Name: "a.png", Size: 1}}
	list := func(ctx context.Context) ([]models.FileItem, error) {
		mu.Lock()
		defer mu.Unlock()
		return append([]models.FileItem(nil), files...), nil
	}

	events := make(chan string, 10)
	w, err := New(func(d string) { events <- d }, Options{Debounce: 10 * time.Millisecond, PollInterval: 20 * time.Millisecond})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	w.WatchRemote("/home/me/out", list)

	time.Sleep(60 * time.Millisecond)
	mu.Lock()
	files = append(files, models.FileItem{Name: "b.png", Size: 2})
	mu.Unlock()

	select {
	case got := <-events:
		if got != "/home/me/out" {
			t.Errorf("Expected /home/me/out, got %s", got)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Expected remote change notification")
	}
}

func TestChanged(t *testing.T) {
	now := time.Now()
	a := snapshotOf([]models.FileItem{{Name: "x", Size: 1, Modified: now}})
	b := snapshotOf([]models.FileItem{{Name: "x", Size: 1, Modified: now}})
	if changed(a, b) {
		t.Error("Expected identical listings unchanged")
	}
	c := snapshotOf([]models.FileItem{{Name: "x", Size: 2, Modified: now}})
	if !changed(a, c) {
		t.Error("Expected size change detected")
	}
	d := snapshotOf(nil)
	if !changed(a, d) {
		t.Error("Expected removal detected")
	}
	if !ignored("/tmp/.hidden") || !ignored("x.swp") || ignored("out.png") {
		t.Error("Unexpected ignore rules")
	}
}
