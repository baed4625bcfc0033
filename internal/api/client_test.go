package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"comfyui-data-manager/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL})
}

func TestListNormalizesDirFlag(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dm/list" || r.Method != http.MethodPost {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req models.ListRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Path != "/data" {
			t.Errorf("Expected path /data, got '%s'", req.Path)
		}
		w.Write([]byte(`{"path":"/data","files":[{"name":"sub","path":"/data/sub","isDir":true},{"name":"x.txt","path":"/data/x.txt","is_dir":false}]}`))
	})

	resp, err := c.List(context.Background(), "/data")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Path != "/data" || len(resp.Files) != 2 {
		t.Fatalf("Unexpected response: %+v", resp)
	}
	if !resp.Files[0].IsDir {
		t.Error("Expected first entry to be a directory")
	}
}

func TestErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"error field", 404, `{"error":"Directory not found"}`, "Directory not found"},
		{"message field", 500, `{"message":"disk full"}`, "disk full"},
		{"error wins", 400, `{"error":"bad path","message":"ignored"}`, "bad path"},
		{"empty object", 502, `{}`, "HTTP 502"},
		{"not json", 500, `<html>Internal Server Error</html>`, "HTTP 500"},
		{"empty body", 503, ``, "HTTP 503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.List(context.Background(), ".")
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected message containing '%s', got '%s'", tt.want, err.Error())
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *api.Error, got %T", err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, apiErr.Status)
			}
		})
	}
}

func TestPreviewURLEscapesPath(t *testing.T) {
	c := New(Config{BaseURL: "http://127.0.0.1:8188/"})
	got := c.PreviewURL("/data/my file&1.png", "")
	want := "http://127.0.0.1:8188/dm/preview?path=%2Fdata%2Fmy+file%261.png"
	if got != want {
		t.Errorf("Expected '%s', got '%s'", want, got)
	}
	remote := c.PreviewURL("/home/a.txt", "abc")
	if !strings.Contains(remote, "connection_id=abc") {
		t.Errorf("Expected connection id in URL, got '%s'", remote)
	}
}

func TestFetchBytes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("path") != "notes.md" {
			t.Errorf("Unexpected path query: %s", r.URL.RawQuery)
		}
		w.Write([]byte("# hello"))
	})
	data, err := c.FetchBytes(context.Background(), "notes.md", "")
	if err != nil {
		t.Fatalf("FetchBytes failed: %v", err)
	}
	if string(data) != "# hello" {
		t.Errorf("Expected '# hello', got '%s'", data)
	}
}

func TestFetchBytesNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"File not found"}`))
	})
	if _, err := c.FetchBytes(context.Background(), "missing.bin", ""); err == nil || err.Error() != "File not found" {
		t.Errorf("Expected 'File not found', got %v", err)
	}
}

func TestCreateAndDelete(t *testing.T) {
	var seen []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.URL.Path)
		switch r.URL.Path {
		case "/dm/create/file":
			var req models.CreateFileRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Filename != "a.txt" || req.Content != "hi" {
				t.Errorf("Unexpected create request: %+v", req)
			}
			w.Write([]byte(`{"success":true,"path":"/d/a.txt"}`))
		case "/dm/create/directory":
			w.Write([]byte(`{"success":true,"path":"/d/sub"}`))
		case "/dm/delete":
			var req models.DeleteRequest
			json.NewDecoder(r.Body).Decode(&req)
			if !req.UseTrash {
				t.Error("Expected use_trash=true")
			}
			w.Write([]byte(`{"success":true}`))
		}
	})

	ctx := context.Background()
	created, err := c.CreateFile(ctx, models.CreateFileRequest{Directory: "/d", Filename: "a.txt", Content: "hi"})
	if err != nil || created.Path != "/d/a.txt" {
		t.Errorf("CreateFile: %v %+v", err, created)
	}
	dir, err := c.CreateDirectory(ctx, models.CreateDirectoryRequest{Directory: "/d", Dirname: "sub"})
	if err != nil || dir.Path != "/d/sub" {
		t.Errorf("CreateDirectory: %v %+v", err, dir)
	}
	if err := c.Delete(ctx, "/d/a.txt", true, ""); err != nil {
		t.Errorf("Delete: %v", err)
	}
	if len(seen) != 3 {
		t.Errorf("Expected 3 requests, got %v", seen)
	}
}

func TestSSHConnectAndList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/dm/ssh/connect":
			var req models.SSHConnectRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.Host != "gpu-box" || req.Port != 22 {
				t.Errorf("Unexpected connect request: %+v", req)
			}
			w.Write([]byte(`{"connection_id":"c1","host":"gpu-box","port":22,"username":"me","home_dir":"/home/me"}`))
		case "/dm/ssh/list":
			var req models.ListRequest
			json.NewDecoder(r.Body).Decode(&req)
			if req.ConnectionID != "c1" {
				t.Errorf("Expected connection_id c1, got '%s'", req.ConnectionID)
			}
			w.Write([]byte(`{"path":"/home/me","files":[]}`))
		case "/dm/ssh/disconnect":
			w.Write([]byte(`{"success":true}`))
		}
	})

	ctx := context.Background()
	conn, err := c.SSHConnect(ctx, models.SSHConnectRequest{Host: "gpu-box", Port: 22, Username: "me", Password: "pw"})
	if err != nil {
		t.Fatalf("SSHConnect failed: %v", err)
	}
	if conn.ConnectionID != "c1" || conn.HomeDir != "/home/me" {
		t.Errorf("Unexpected connection: %+v", conn)
	}
	list, err := c.SSHList(ctx, "c1", "/home/me")
	if err != nil || list.Path != "/home/me" {
		t.Errorf("SSHList: %v %+v", err, list)
	}
	if err := c.SSHDisconnect(ctx, "c1"); err != nil {
		t.Errorf("SSHDisconnect: %v", err)
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url})
	if _, err := c.Info(context.Background(), "a", ""); err == nil {
		t.Error("Expected error against closed server")
	}
}
