package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFileItemAcceptsBothDirSpellings(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"snake", `{"name":"a","is_dir":true}`, true},
		{"camel", `{"name":"a","isDir":true}`, true},
		{"both prefers snake", `{"name":"a","is_dir":false,"isDir":true}`, false},
		{"neither", `{"name":"a"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var item FileItem
			if err := json.Unmarshal([]byte(tt.body), &item); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if item.IsDir != tt.want {
				t.Errorf("Expected IsDir=%v, got %v", tt.want, item.IsDir)
			}
		})
	}
}

func TestFileItemModifiedFormats(t *testing.T) {
	var a, b, c FileItem
	if err := json.Unmarshal([]byte(`{"name":"x","modified":"2024-05-01T10:00:00Z"}`), &a); err != nil {
		t.Fatal(err)
	}
	if !a.Modified.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected RFC 3339 time: %v", a.Modified)
	}

	if err := json.Unmarshal([]byte(`{"name":"x","modified":1714557600}`), &b); err != nil {
		t.Fatal(err)
	}
	if b.Modified.Unix() != 1714557600 {
		t.Errorf("Expected unix 1714557600, got %d", b.Modified.Unix())
	}

	if err := json.Unmarshal([]byte(`{"name":"x","modified":null}`), &c); err != nil {
		t.Fatal(err)
	}
	if !c.Modified.IsZero() {
		t.Errorf("Expected zero time for null, got %v", c.Modified)
	}
}

func TestListResponseDecodesMixedItems(t *testing.T) {
	body := `{"path":"/data","files":[{"name":"in","path":"/data/in","isDir":true},{"name":"a.png","path":"/data/a.png","size":12,"is_dir":false}]}`
	var resp ListResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(resp.Files) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(resp.Files))
	}
	if !resp.Files[0].IsDir || resp.Files[1].IsDir {
		t.Errorf("Unexpected dir flags: %+v", resp.Files)
	}
	if resp.Files[1].Size != 12 {
		t.Errorf("Expected size 12, got %d", resp.Files[1].Size)
	}
}
