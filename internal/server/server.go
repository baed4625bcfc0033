// Package server implements the /dm/* HTTP backend over the local
// filesystem and over SSH sessions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net"
	"net/http"
	"net/url"
	"slices"
	"time"

	apperrors "comfyui-data-manager/internal/errors"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/metrics"
	"comfyui-data-manager/internal/remote"
)

// ShellOrigins are the origins the Wails webview loads the shell from.
var ShellOrigins = []string{"wails://wails", "http://wails.localhost", "https://wails.localhost"}

// errUnsupportedMedia rejects request bodies that are not JSON.
var errUnsupportedMedia = errors.New("request body must be application/json")

// Options configures a Server.
type Options struct {
	BaseDir  string
	TrashDir string
	Remote   *remote.Manager

	// Origins are extra browser origins allowed besides ShellOrigins.
	Origins []string
}

// Server is the /dm/* backend.
type Server struct {
	local   *localFS
	remote  *remote.Manager
	mux     *http.ServeMux
	origins []string

	httpSrv  *http.Server
	listener net.Listener
}

// New builds a server and registers its routes.
func New(opts Options) (*Server, error) {
	local, err := newLocalFS(opts.BaseDir, opts.TrashDir)
	if err != nil {
		return nil, err
	}
	if opts.Remote == nil {
		opts.Remote = remote.NewManager(remote.Options{})
	}
	s := &Server{
		local:   local,
		remote:  opts.Remote,
		mux:     http.NewServeMux(),
		origins: append(slices.Clone(ShellOrigins), opts.Origins...),
	}

	s.mux.HandleFunc("POST /dm/list", s.handleList)
	s.mux.HandleFunc("GET /dm/preview", s.handlePreview)
	s.mux.HandleFunc("POST /dm/info", s.handleInfo)
	s.mux.HandleFunc("POST /dm/create/file", s.handleCreateFile)
	s.mux.HandleFunc("POST /dm/create/directory", s.handleCreateDirectory)
	s.mux.HandleFunc("POST /dm/delete", s.handleDelete)
	s.mux.HandleFunc("POST /dm/ssh/connect", s.handleSSHConnect)
	s.mux.HandleFunc("POST /dm/ssh/disconnect", s.handleSSHDisconnect)
	s.mux.HandleFunc("POST /dm/ssh/list", s.handleSSHList)
	s.mux.Handle("GET /metrics", metrics.Handler())
	return s, nil
}

// Handler returns the routes wrapped in request logging, metrics and the
// origin check.
func (s *Server) Handler() http.Handler {
	return logging.Middleware(metrics.Middleware(s.checkOrigin(s.mux)))
}

// checkOrigin refuses browser requests from pages other than the shell.
// Requests without an Origin header come from the Go client or from
// same-document media loads.
func (s *Server) checkOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" || s.allowedOrigin(origin, r.Host) {
			next.ServeHTTP(w, r)
			return
		}
		logging.Warn("rejected cross-origin request",
			logging.String("origin", origin), logging.String("path", r.URL.Path))
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Origin not allowed"})
	})
}

func (s *Server) allowedOrigin(origin, host string) bool {
	if slices.Contains(s.origins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Scheme == "http" && u.Host == host
}

// BaseDir is the directory "." resolves to.
func (s *Server) BaseDir() string {
	return s.local.baseDir
}

// Start listens on addr and serves in the background. It returns the
// base URL clients should use.
func (s *Server) Start(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("backend server stopped", logging.Err(err))
		}
	}()

	url := "http://" + ln.Addr().String()
	logging.Info("backend server started", logging.String("url", url), logging.String("base_dir", s.local.baseDir))
	return url, nil
}

// Shutdown stops the HTTP server and closes every SSH session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.remote.CloseAll()
	metrics.SetSSHSessionsActive(0)
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to write response", logging.Err(err))
	}
}

// writeError maps err onto a status code and a {"error": msg} body.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		logging.Error("request failed", logging.Err(err))
	} else {
		logging.Debug("request rejected", logging.Int("status", status), logging.Err(err))
	}
	writeJSON(w, status, map[string]string{"error": apperrors.UserMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnsupportedMedia):
		return http.StatusUnsupportedMediaType
	case apperrors.IsType(err, apperrors.ErrorTypeValidation):
		return http.StatusBadRequest
	case errors.Is(err, remote.ErrSessionNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, fs.ErrExist):
		return http.StatusConflict
	case errors.Is(err, fs.ErrPermission):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// decode reads a JSON request body. Other media types are refused so a
// page cannot reach the backend with a form or text/plain post.
func decode(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return errUnsupportedMedia
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.NewValidationError("decode", "Invalid JSON body")
	}
	return nil
}
