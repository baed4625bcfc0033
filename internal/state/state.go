// Package state holds the main window's FileManagerState: the listing,
// selection, view and sort settings and the navigation history.
package state

import (
	"sort"
	"strings"

	"comfyui-data-manager/internal/models"
)

// ViewMode selects list or grid rendering.
type ViewMode string

const (
	ViewList ViewMode = "list"
	ViewGrid ViewMode = "grid"
)

// SortColumn is a sortable listing column.
type SortColumn string

const (
	SortName     SortColumn = "name"
	SortSize     SortColumn = "size"
	SortModified SortColumn = "modified"
)

// SortOrder is ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

const maxHistory = 200

// FileManagerState is owned by the browser controller and only touched
// from the UI loop.
type FileManagerState struct {
	CurrentPath        string
	SelectedFiles      []string
	CurrentPreviewFile string
	ViewMode           ViewMode
	SortBy             SortColumn
	SortOrder          SortOrder
	Files              []models.FileItem
	History            []string
	HistoryIndex       int
}

// New returns the initial state: empty history, list view, name ascending.
func New() *FileManagerState {
	return &FileManagerState{
		ViewMode:     ViewList,
		SortBy:       SortName,
		SortOrder:    Asc,
		HistoryIndex: -1,
	}
}

// CurrentHistoryPath returns history[HistoryIndex], or "" when empty.
func (s *FileManagerState) CurrentHistoryPath() string {
	if s.HistoryIndex < 0 || s.HistoryIndex >= len(s.History) {
		return ""
	}
	return s.History[s.HistoryIndex]
}

// PushHistory records a successful load of path. Forward entries are
// discarded. It does nothing when path is already the current entry.
func (s *FileManagerState) PushHistory(path string) bool {
	if len(s.History) > 0 && s.CurrentHistoryPath() == path {
		return false
	}
	if s.HistoryIndex >= 0 && s.HistoryIndex < len(s.History)-1 {
		s.History = s.History[:s.HistoryIndex+1]
	}
	s.History = append(s.History, path)
	s.HistoryIndex = len(s.History) - 1

	if len(s.History) > maxHistory {
		excess := len(s.History) - maxHistory
		s.History = append([]string(nil), s.History[excess:]...)
		s.HistoryIndex -= excess
	}
	return true
}

// ResetHistory forgets every history entry.
func (s *FileManagerState) ResetHistory() {
	s.History = nil
	s.HistoryIndex = -1
}

// BackTarget returns the history index a back step would load.
func (s *FileManagerState) BackTarget() (int, bool) {
	return s.BackFrom(s.HistoryIndex)
}

// ForwardTarget returns the history index a forward step would load.
func (s *FileManagerState) ForwardTarget() (int, bool) {
	return s.ForwardFrom(s.HistoryIndex)
}

// BackFrom returns the entry before index i.
func (s *FileManagerState) BackFrom(i int) (int, bool) {
	if i <= 0 || i >= len(s.History) {
		return 0, false
	}
	return i - 1, true
}

// ForwardFrom returns the entry after index i.
func (s *FileManagerState) ForwardFrom(i int) (int, bool) {
	if i < 0 || i >= len(s.History)-1 {
		return 0, false
	}
	return i + 1, true
}

// CanGoBack reports whether a back step exists.
func (s *FileManagerState) CanGoBack() bool {
	_, ok := s.BackTarget()
	return ok
}

// CanGoForward reports whether a forward step exists.
func (s *FileManagerState) CanGoForward() bool {
	_, ok := s.ForwardTarget()
	return ok
}

// SetHistoryIndex moves within history without changing it. Out of
// range indexes are ignored.
func (s *FileManagerState) SetHistoryIndex(i int) {
	if i >= 0 && i < len(s.History) {
		s.HistoryIndex = i
	}
}

// ToggleSort flips the order when column is already the sort column,
// otherwise switches to column ascending. The listing is re-sorted.
func (s *FileManagerState) ToggleSort(column SortColumn) {
	if s.SortBy == column {
		if s.SortOrder == Asc {
			s.SortOrder = Desc
		} else {
			s.SortOrder = Asc
		}
	} else {
		s.SortBy = column
		s.SortOrder = Asc
	}
	SortFiles(s.Files, s.SortBy, s.SortOrder)
}

// SetFiles replaces the listing wholesale and sorts it.
func (s *FileManagerState) SetFiles(files []models.FileItem) {
	s.Files = files
	SortFiles(s.Files, s.SortBy, s.SortOrder)
}

// Select sets the selection to path, or toggles path in it when additive.
func (s *FileManagerState) Select(path string, additive bool) {
	if !additive {
		s.SelectedFiles = []string{path}
		return
	}
	for i, p := range s.SelectedFiles {
		if p == path {
			s.SelectedFiles = append(s.SelectedFiles[:i], s.SelectedFiles[i+1:]...)
			return
		}
	}
	s.SelectedFiles = append(s.SelectedFiles, path)
}

// IsSelected reports whether path is selected.
func (s *FileManagerState) IsSelected(path string) bool {
	for _, p := range s.SelectedFiles {
		if p == path {
			return true
		}
	}
	return false
}

// ClearSelection empties the selection.
func (s *FileManagerState) ClearSelection() {
	s.SelectedFiles = nil
}

// FindFile returns the listed item with path.
func (s *FileManagerState) FindFile(path string) (models.FileItem, bool) {
	for _, f := range s.Files {
		if f.Path == path {
			return f, true
		}
	}
	return models.FileItem{}, false
}

// SortFiles orders files in place: directories first, then by column in
// the given order, ties broken by name.
func SortFiles(files []models.FileItem, by SortColumn, order SortOrder) {
	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		c := compare(a, b, by)
		if c == 0 && by != SortName {
			c = compare(a, b, SortName)
		}
		if order == Desc {
			c = -c
		}
		return c < 0
	})
}

func compare(a, b models.FileItem, by SortColumn) int {
	switch by {
	case SortSize:
		switch {
		case a.Size < b.Size:
			return -1
		case a.Size > b.Size:
			return 1
		}
		return 0
	case SortModified:
		return a.Modified.Compare(b.Modified)
	}
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	return strings.Compare(a.Name, b.Name)
}

// ParentPath returns the parent of p for both slash and backslash
// separated paths. The parent of a root is the root itself; the parent
// of a bare name is ".".
func ParentPath(p string) string {
	if p == "" || p == "." {
		return "."
	}
	trimmed := strings.TrimRight(p, `/\`)
	if trimmed == "" {
		return p[:1]
	}
	if len(trimmed) == 2 && trimmed[1] == ':' {
		return trimmed + `\`
	}
	i := strings.LastIndexAny(trimmed, `/\`)
	switch {
	case i < 0:
		return "."
	case i == 0:
		return trimmed[:1]
	case i == 2 && trimmed[1] == ':':
		return trimmed[:3]
	}
	return trimmed[:i]
}

// BaseName returns the last element of p.
func BaseName(p string) string {
	trimmed := strings.TrimRight(p, `/\`)
	if i := strings.LastIndexAny(trimmed, `/\`); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

// JoinPath joins a directory and a name using the directory's separator.
func JoinPath(dir, name string) string {
	sep := "/"
	if strings.Contains(dir, `\`) && !strings.Contains(dir, "/") {
		sep = `\`
	}
	if strings.HasSuffix(dir, sep) {
		return dir + name
	}
	return dir + sep + name
}
