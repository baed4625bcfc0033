package state

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"comfyui-data-manager/internal/models"
)

func names(files []models.FileItem) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestNewState(t *testing.T) {
	s := New()
	if s.HistoryIndex != -1 {
		t.Errorf("Expected history index -1, got %d", s.HistoryIndex)
	}
	if s.ViewMode != ViewList || s.SortBy != SortName || s.SortOrder != Asc {
		t.Errorf("Unexpected defaults: %+v", s)
	}
	if s.CanGoBack() || s.CanGoForward() {
		t.Error("Expected no navigation on empty history")
	}
}

func TestPushHistoryTruncatesForward(t *testing.T) {
	s := New()
	s.PushHistory("/a")
	s.PushHistory("/b")
	s.PushHistory("/c")

	if s.PushHistory("/c") {
		t.Error("Expected pushing the current path to be a no-op")
	}

	idx, ok := s.BackTarget()
	if !ok || idx != 1 {
		t.Fatalf("Expected back target 1, got %d %v", idx, ok)
	}
	s.SetHistoryIndex(idx)
	s.SetHistoryIndex(0)

	s.PushHistory("/d")
	if !reflect.DeepEqual(s.History, []string{"/a", "/d"}) {
		t.Errorf("Expected forward entries discarded, got %v", s.History)
	}
	if s.HistoryIndex != 1 {
		t.Errorf("Expected index 1, got %d", s.HistoryIndex)
	}
}

func TestBackForwardNeverMutatesHistory(t *testing.T) {
	s := New()
	for _, p := range []string{"/1", "/2", "/3", "/4"} {
		s.PushHistory(p)
	}
	snapshot := append([]string(nil), s.History...)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		var idx int
		var ok bool
		if r.Intn(2) == 0 {
			idx, ok = s.BackTarget()
		} else {
			idx, ok = s.ForwardTarget()
		}
		if ok {
			s.SetHistoryIndex(idx)
		}
		if s.HistoryIndex < 0 || s.HistoryIndex >= len(s.History) {
			t.Fatalf("History index %d out of range", s.HistoryIndex)
		}
	}
	if !reflect.DeepEqual(s.History, snapshot) {
		t.Errorf("History changed: %v", s.History)
	}
}

func TestBoundaries(t *testing.T) {
	s := New()
	s.PushHistory("/only")
	if _, ok := s.BackTarget(); ok {
		t.Error("Expected no back target at start")
	}
	if _, ok := s.ForwardTarget(); ok {
		t.Error("Expected no forward target at end")
	}
	s.SetHistoryIndex(5)
	if s.HistoryIndex != 0 {
		t.Errorf("Expected out-of-range index ignored, got %d", s.HistoryIndex)
	}
}

func TestStepsFromIndex(t *testing.T) {
	s := New()
	for _, p := range []string{"/1", "/2", "/3"} {
		s.PushHistory(p)
	}
	if idx, ok := s.BackFrom(1); !ok || idx != 0 {
		t.Errorf("Expected back from 1 to reach 0, got %d %v", idx, ok)
	}
	if idx, ok := s.ForwardFrom(0); !ok || idx != 1 {
		t.Errorf("Expected forward from 0 to reach 1, got %d %v", idx, ok)
	}
	if _, ok := s.BackFrom(0); ok {
		t.Error("Expected no step back from the first entry")
	}
	if _, ok := s.ForwardFrom(2); ok {
		t.Error("Expected no step forward from the last entry")
	}
	if _, ok := s.BackFrom(7); ok {
		t.Error("Expected out-of-range index to have no step")
	}
}

func TestHistoryCap(t *testing.T) {
	s := New()
	for i := 0; i < maxHistory+10; i++ {
		s.PushHistory(string(rune('a'+i%26)) + time.Duration(i).String())
	}
	if len(s.History) != maxHistory {
		t.Errorf("Expected %d entries, got %d", maxHistory, len(s.History))
	}
	if s.HistoryIndex != maxHistory-1 {
		t.Errorf("Expected index at end, got %d", s.HistoryIndex)
	}
}

func TestToggleSort(t *testing.T) {
	s := New()
	s.ToggleSort(SortName)
	if s.SortBy != SortName || s.SortOrder != Desc {
		t.Errorf("Expected name desc, got %s %s", s.SortBy, s.SortOrder)
	}
	s.ToggleSort(SortName)
	if s.SortOrder != Asc {
		t.Errorf("Expected asc after second toggle, got %s", s.SortOrder)
	}
	s.ToggleSort(SortName)
	s.ToggleSort(SortSize)
	if s.SortBy != SortSize || s.SortOrder != Asc {
		t.Errorf("Expected size asc, got %s %s", s.SortBy, s.SortOrder)
	}
}

func TestDirectoriesFirst(t *testing.T) {
	files := []models.FileItem{{Name: "a.txt"}, {Name: "z_dir", IsDir: true}}
	SortFiles(files, SortName, Asc)
	if got := names(files); !reflect.DeepEqual(got, []string{"z_dir", "a.txt"}) {
		t.Errorf("Expected [z_dir a.txt], got %v", got)
	}

	SortFiles(files, SortName, Desc)
	if got := names(files); got[0] != "z_dir" {
		t.Errorf("Expected directory first in desc order, got %v", got)
	}
}

func TestSortColumns(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	files := []models.FileItem{
		{Name: "b.png", Size: 300, Modified: base.Add(time.Hour)},
		{Name: "a.png", Size: 100, Modified: base.Add(3 * time.Hour)},
		{Name: "c.png", Size: 100, Modified: base},
		{Name: "models", IsDir: true, Modified: base},
	}

	SortFiles(files, SortSize, Asc)
	if got := names(files); !reflect.DeepEqual(got, []string{"models", "a.png", "c.png", "b.png"}) {
		t.Errorf("Size asc with name tiebreak: got %v", got)
	}

	SortFiles(files, SortSize, Desc)
	if got := names(files); !reflect.DeepEqual(got, []string{"models", "b.png", "c.png", "a.png"}) {
		t.Errorf("Size desc: got %v", got)
	}

	SortFiles(files, SortModified, Asc)
	if got := names(files); !reflect.DeepEqual(got, []string{"models", "c.png", "b.png", "a.png"}) {
		t.Errorf("Modified asc: got %v", got)
	}

	SortFiles(files, SortName, Asc)
	if got := names(files); !reflect.DeepEqual(got, []string{"models", "a.png", "b.png", "c.png"}) {
		t.Errorf("Name asc: got %v", got)
	}
}

func TestSelection(t *testing.T) {
	s := New()
	s.Select("/a", false)
	s.Select("/b", true)
	if !s.IsSelected("/a") || !s.IsSelected("/b") {
		t.Errorf("Expected both selected, got %v", s.SelectedFiles)
	}
	s.Select("/a", true)
	if s.IsSelected("/a") {
		t.Error("Expected additive select to toggle off")
	}
	s.Select("/c", false)
	if !reflect.DeepEqual(s.SelectedFiles, []string{"/c"}) {
		t.Errorf("Expected single selection, got %v", s.SelectedFiles)
	}
	s.ClearSelection()
	if len(s.SelectedFiles) != 0 {
		t.Error("Expected empty selection")
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/", "/"},
		{"/home", "/"},
		{"/home/me/", "/home"},
		{"/home/me/out", "/home/me"},
		{".", "."},
		{"output", "."},
		{"output/images", "output"},
		{`C:\`, `C:\`},
		{`C:\Users`, `C:\`},
		{`C:\Users\me`, `C:\Users`},
	}
	for _, tt := range tests {
		if got := ParentPath(tt.in); got != tt.want {
			t.Errorf("ParentPath(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
}

func TestBaseAndJoin(t *testing.T) {
	if BaseName("/a/b.txt") != "b.txt" || BaseName(`C:\x\y`) != "y" || BaseName("/a/dir/") != "dir" {
		t.Error("Unexpected BaseName result")
	}
	if JoinPath("/a", "b") != "/a/b" || JoinPath("/", "b") != "/b" || JoinPath(`C:\x`, "y") != `C:\x\y` {
		t.Error("Unexpected JoinPath result")
	}
}
