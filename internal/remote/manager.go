// Package remote manages SSH sessions and the SFTP clients the backend
// uses to serve /dm/ssh/* and connection-scoped /dm/* requests.
package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	apperrors "comfyui-data-manager/internal/errors"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/models"
)

// ErrSessionNotFound is wrapped by errors for an unknown connection id.
var ErrSessionNotFound = errors.New("connection not found")

// Session is one live SSH connection.
type Session struct {
	ID          string
	Host        string
	Port        int
	Username    string
	HomeDir     string
	ConnectedAt time.Time

	client *ssh.Client
}

// Descriptor returns the wire form of s.
func (s *Session) Descriptor() models.SSHConnection {
	return models.SSHConnection{
		ConnectionID: s.ID,
		Host:         s.Host,
		Port:         s.Port,
		Username:     s.Username,
		HomeDir:      s.HomeDir,
	}
}

// Options configures a Manager.
type Options struct {
	KnownHostsPath string
	ConnectTimeout time.Duration
}

// Manager owns every session and caches one SFTP client per session.
type Manager struct {
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session

	poolMu sync.Mutex
	pool   map[string]*sftp.Client
}

// NewManager creates an empty manager.
func NewManager(opts Options) *Manager {
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
		pool:     make(map[string]*sftp.Client),
	}
}

// Connect dials host and authenticates with a password, a private key
// file, or both.
func (m *Manager) Connect(ctx context.Context, req models.SSHConnectRequest) (*Session, error) {
	if strings.TrimSpace(req.Host) == "" {
		return nil, apperrors.NewValidationError("ssh connect", "host is required")
	}
	if strings.TrimSpace(req.Username) == "" {
		return nil, apperrors.NewValidationError("ssh connect", "username is required")
	}
	if req.Port == 0 {
		req.Port = 22
	}

	var auth []ssh.AuthMethod
	if req.KeyFile != "" {
		signer, err := loadSigner(req.KeyFile)
		if err != nil {
			return nil, apperrors.NewRemoteError("ssh connect", req.KeyFile, "failed to load private key", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if req.Password != "" {
		auth = append(auth, ssh.Password(req.Password))
	}
	if len(auth) == 0 {
		return nil, apperrors.NewValidationError("ssh connect", "no authentication method configured")
	}

	cfg := &ssh.ClientConfig{
		User:            req.Username,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback(m.opts.KnownHostsPath),
		Timeout:         m.opts.ConnectTimeout,
	}

	addr := net.JoinHostPort(req.Host, strconv.Itoa(req.Port))
	client, err := dial(ctx, addr, cfg)
	if err != nil {
		return nil, apperrors.NewRemoteError("ssh connect", addr, fmt.Sprintf("failed to connect to %s: %v", addr, err), err)
	}

	sess := &Session{
		ID:          uuid.NewString(),
		Host:        req.Host,
		Port:        req.Port,
		Username:    req.Username,
		ConnectedAt: time.Now(),
		client:      client,
	}

	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()

	sc, err := m.sftpClient(sess.ID)
	if err != nil {
		m.Disconnect(sess.ID)
		return nil, err
	}
	if home, err := sc.Getwd(); err == nil {
		sess.HomeDir = home
	} else {
		sess.HomeDir = "/"
	}

	logging.Info("ssh session opened",
		logging.String("connection_id", sess.ID), logging.String("addr", addr), logging.String("user", req.Username))
	return sess, nil
}

// dial is ssh.Dial with ctx honoured during the TCP connect and handshake.
func dial(ctx context.Context, addr string, cfg *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	} else if cfg.Timeout > 0 {
		conn.SetDeadline(time.Now().Add(cfg.Timeout))
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetDeadline(time.Time{})
	return ssh.NewClient(c, chans, reqs), nil
}

func loadSigner(path string) (ssh.Signer, error) {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ssh.ParsePrivateKey(key)
}

// Session returns the live session with id.
func (m *Manager) Session(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.NewRemoteError("session", "", fmt.Sprintf("Connection not found: %s", id), ErrSessionNotFound)
	}
	return sess, nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Disconnect closes the session and its cached SFTP client.
func (m *Manager) Disconnect(id string) error {
	m.closeSFTPClient(id)

	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return apperrors.NewRemoteError("ssh disconnect", "", fmt.Sprintf("Connection not found: %s", id), ErrSessionNotFound)
	}
	if sess.client != nil {
		sess.client.Close()
	}
	logging.Info("ssh session closed", logging.String("connection_id", id))
	return nil
}

// CloseAll disconnects every session.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.Disconnect(id)
	}
}

// sftpClient returns the cached client for id, replacing it when the
// health check fails. Callers must not close it.
func (m *Manager) sftpClient(id string) (*sftp.Client, error) {
	m.poolMu.Lock()
	defer m.poolMu.Unlock()

	if c, ok := m.pool[id]; ok {
		if _, err := c.Getwd(); err == nil {
			return c, nil
		}
		c.Close()
		delete(m.pool, id)
	}

	sess, err := m.Session(id)
	if err != nil {
		return nil, err
	}
	c, err := sftp.NewClient(sess.client)
	if err != nil {
		return nil, apperrors.NewRemoteError("sftp", "", "failed to start SFTP subsystem", err)
	}
	m.pool[id] = c
	return c, nil
}

func (m *Manager) closeSFTPClient(id string) {
	m.poolMu.Lock()
	defer m.poolMu.Unlock()
	if c, ok := m.pool[id]; ok {
		c.Close()
		delete(m.pool, id)
	}
}
