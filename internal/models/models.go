// Package models holds the wire shapes shared by the /dm/* backend and
// its client.
package models

import (
	"encoding/json"
	"time"
)

// FileItem is one directory entry as returned by a listing.
type FileItem struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	IsDir    bool      `json:"is_dir"`
	Type     string    `json:"type,omitempty"`
}

// UnmarshalJSON accepts both "is_dir" and "isDir" so that every caller
// sees a single IsDir field, and both RFC 3339 and unix-seconds modified times.
func (f *FileItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name     string          `json:"name"`
		Path     string          `json:"path"`
		Size     int64           `json:"size"`
		Modified json.RawMessage `json:"modified"`
		IsDir    *bool           `json:"is_dir"`
		IsDirAlt *bool           `json:"isDir"`
		Type     string          `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = FileItem{
		Name: raw.Name,
		Path: raw.Path,
		Size: raw.Size,
		Type: raw.Type,
	}
	switch {
	case raw.IsDir != nil:
		f.IsDir = *raw.IsDir
	case raw.IsDirAlt != nil:
		f.IsDir = *raw.IsDirAlt
	}
	f.Modified = parseModified(raw.Modified)
	return nil
}

func parseModified(raw json.RawMessage) time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		return time.Time{}
	}
	var secs float64
	if err := json.Unmarshal(raw, &secs); err == nil {
		return time.Unix(int64(secs), 0)
	}
	return time.Time{}
}

// ListRequest is the body of /dm/list and /dm/ssh/list.
type ListRequest struct {
	Path         string `json:"path"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// ListResponse is returned by both listing endpoints.
type ListResponse struct {
	Files []FileItem `json:"files"`
	Path  string     `json:"path"`
}

// InfoRequest is the body of /dm/info.
type InfoRequest struct {
	Path         string `json:"path"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// InfoResponse wraps a single FileItem.
type InfoResponse struct {
	Info FileItem `json:"info"`
}

// CreateFileRequest is the body of /dm/create/file.
type CreateFileRequest struct {
	Directory    string `json:"directory"`
	Filename     string `json:"filename"`
	Content      string `json:"content"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// CreateDirectoryRequest is the body of /dm/create/directory.
type CreateDirectoryRequest struct {
	Directory    string `json:"directory"`
	Dirname      string `json:"dirname"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// CreateResponse is returned by both create endpoints.
type CreateResponse struct {
	Success bool   `json:"success"`
	Path    string `json:"path"`
}

// DeleteRequest is the body of /dm/delete.
type DeleteRequest struct {
	Path         string `json:"path"`
	UseTrash     bool   `json:"use_trash"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// SuccessResponse is a bare acknowledgement.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// SSHConnectRequest is the body of /dm/ssh/connect.
type SSHConnectRequest struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	KeyFile  string `json:"key_file,omitempty"`
}

// SSHConnection describes a live session acknowledged by the backend.
type SSHConnection struct {
	ConnectionID string `json:"connection_id"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	HomeDir      string `json:"home_dir"`
}

// SSHDisconnectRequest is the body of /dm/ssh/disconnect.
type SSHDisconnectRequest struct {
	ConnectionID string `json:"connection_id"`
}

// ErrorResponse is the JSON error body written by the backend.
type ErrorResponse struct {
	Error string `json:"error"`
}
