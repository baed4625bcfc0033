package server

import (
	"io"
	"net/http"
	"os"
	"time"

	apperrors "comfyui-data-manager/internal/errors"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/metrics"
	"comfyui-data-manager/internal/models"
)

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var req models.ListRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ConnectionID != "" {
		s.listRemote(w, req)
		return
	}
	dir, files, err := s.local.list(req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ListResponse{Files: files, Path: dir})
}

func (s *Server) handleSSHList(w http.ResponseWriter, r *http.Request) {
	var req models.ListRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ConnectionID == "" {
		writeError(w, apperrors.NewValidationError("ssh list", "connection_id is required"))
		return
	}
	s.listRemote(w, req)
}

func (s *Server) listRemote(w http.ResponseWriter, req models.ListRequest) {
	dir, files, err := s.remote.List(req.ConnectionID, req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ListResponse{Files: files, Path: dir})
}

// readSeekCloser is satisfied by *os.File and *sftp.File.
type readSeekCloser interface {
	io.ReadSeeker
	io.Closer
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := q.Get("path")
	if p == "" {
		writeError(w, apperrors.NewValidationError("preview", "path is required"))
		return
	}

	var (
		f      readSeekCloser
		fi     os.FileInfo
		err    error
		source = "local"
	)
	if id := q.Get("connection_id"); id != "" {
		source = "remote"
		f, fi, err = s.remote.Open(id, p)
	} else {
		f, fi, err = s.local.open(p)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	defer f.Close()

	// ServeContent picks the content type from the extension and handles ranges for media seeking.
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
	metrics.RecordPreview(source, fi.Size())
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	var req models.InfoRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	var (
		item models.FileItem
		err  error
	)
	if req.ConnectionID != "" {
		item, err = s.remote.Stat(req.ConnectionID, req.Path)
	} else {
		item, err = s.local.info(req.Path)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.InfoResponse{Info: item})
}

func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFileRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Filename == "" {
		writeError(w, apperrors.NewValidationError("create file", "filename is required"))
		return
	}

	var (
		path   string
		err    error
		source = sourceOf(req.ConnectionID)
	)
	if req.ConnectionID != "" {
		path, err = s.remote.CreateFile(req.ConnectionID, req.Directory, req.Filename, req.Content)
	} else {
		path, err = s.local.createFile(req.Directory, req.Filename, req.Content)
	}
	metrics.RecordFileOperation("create_file", source, err == nil)
	if err != nil {
		writeError(w, err)
		return
	}
	logging.Info("file created", logging.String("path", path), logging.String("source", source))
	writeJSON(w, http.StatusOK, models.CreateResponse{Success: true, Path: path})
}

func (s *Server) handleCreateDirectory(w http.ResponseWriter, r *http.Request) {
	var req models.CreateDirectoryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Dirname == "" {
		writeError(w, apperrors.NewValidationError("create directory", "dirname is required"))
		return
	}

	var (
		path   string
		err    error
		source = sourceOf(req.ConnectionID)
	)
	if req.ConnectionID != "" {
		path, err = s.remote.Mkdir(req.ConnectionID, req.Directory, req.Dirname)
	} else {
		path, err = s.local.createDirectory(req.Directory, req.Dirname)
	}
	metrics.RecordFileOperation("create_directory", source, err == nil)
	if err != nil {
		writeError(w, err)
		return
	}
	logging.Info("directory created", logging.String("path", path), logging.String("source", source))
	writeJSON(w, http.StatusOK, models.CreateResponse{Success: true, Path: path})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Path == "" {
		writeError(w, apperrors.NewValidationError("delete", "path is required"))
		return
	}

	var err error
	source := sourceOf(req.ConnectionID)
	if req.ConnectionID != "" {
		// remote deletes are always permanent
		err = s.remote.Remove(req.ConnectionID, req.Path)
	} else {
		err = s.local.remove(req.Path, req.UseTrash)
	}
	metrics.RecordFileOperation("delete", source, err == nil)
	if err != nil {
		writeError(w, err)
		return
	}
	logging.Info("deleted", logging.String("path", req.Path), logging.String("source", source))
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func (s *Server) handleSSHConnect(w http.ResponseWriter, r *http.Request) {
	var req models.SSHConnectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	start := time.Now()
	sess, err := s.remote.Connect(r.Context(), req)
	metrics.RecordSSHConnect(err == nil)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.SetSSHSessionsActive(s.remote.Count())
	logging.Debug("ssh connect", logging.String("connection_id", sess.ID), logging.Duration("took", time.Since(start)))
	writeJSON(w, http.StatusOK, sess.Descriptor())
}

func (s *Server) handleSSHDisconnect(w http.ResponseWriter, r *http.Request) {
	var req models.SSHDisconnectRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.remote.Disconnect(req.ConnectionID); err != nil {
		writeError(w, err)
		return
	}
	metrics.SetSSHSessionsActive(s.remote.Count())
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func sourceOf(connectionID string) string {
	if connectionID != "" {
		return "remote"
	}
	return "local"
}
