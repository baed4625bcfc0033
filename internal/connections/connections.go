// Package connections tracks the active SSH connection and the saved
// connection list. Both are persisted as JSON preferences; passwords go
// to a secret.Store and never into the JSON.
package connections

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"comfyui-data-manager/internal/secret"
	"comfyui-data-manager/internal/store"
)

// DefaultPort is used when a connection has no port.
const DefaultPort = 22

// Connection is a remote host the panel can browse.
type Connection struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Username     string `json:"username"`
	KeyFile      string `json:"key_file,omitempty"`
	ConnectionID string `json:"connection_id,omitempty"`
	HomeDir      string `json:"home_dir,omitempty"`
	HasPassword  bool   `json:"has_password,omitempty"`
}

// Label is the display name of c.
func (c Connection) Label() string {
	if c.Name != "" {
		return c.Name
	}
	label := c.Username + "@" + c.Host
	if c.Port != 0 && c.Port != DefaultPort {
		label += ":" + strconv.Itoa(c.Port)
	}
	return label
}

// Prefs is the persisted key/value store.
type Prefs interface {
	Get(key string, v any) (bool, error)
	Put(key string, v any) error
	Delete(key string) error
}

// State is owned by the UI loop.
type State struct {
	prefs   Prefs
	secrets secret.Store
	active  *Connection
	saved   []Connection
}

// Load reads the persisted state. Unreadable entries start empty.
func Load(prefs Prefs, secrets secret.Store) (*State, error) {
	s := &State{prefs: prefs, secrets: secrets}
	if _, err := prefs.Get(store.KeyRemoteConnections, &s.saved); err != nil {
		s.saved = nil
		return s, fmt.Errorf("failed to load saved connections: %w", err)
	}
	var active Connection
	ok, err := prefs.Get(store.KeyActiveConnection, &active)
	if err != nil {
		return s, fmt.Errorf("failed to load active connection: %w", err)
	}
	if ok && active.ConnectionID != "" {
		s.active = &active
	}
	return s, nil
}

// Active returns the live connection, or nil when browsing locally.
func (s *State) Active() *Connection {
	if s.active == nil {
		return nil
	}
	c := *s.active
	return &c
}

// ActiveID returns the backend connection id, or "".
func (s *State) ActiveID() string {
	if s.active == nil {
		return ""
	}
	return s.active.ConnectionID
}

// SetActive records c as the live connection.
func (s *State) SetActive(c Connection) error {
	s.active = &c
	return s.prefs.Put(store.KeyActiveConnection, c)
}

// ClearActive switches back to local browsing.
func (s *State) ClearActive() error {
	s.active = nil
	return s.prefs.Delete(store.KeyActiveConnection)
}

// Saved returns the saved connections.
func (s *State) Saved() []Connection {
	return append([]Connection(nil), s.saved...)
}

func sameTarget(a, b Connection) bool {
	return a.Host == b.Host && a.Port == b.Port && a.Username == b.Username
}

// Save adds or updates c (matched by id, then by host, port and user).
// A non-empty password is written to the secret store.
func (s *State) Save(c Connection, password string) (Connection, error) {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	c.ConnectionID = ""
	c.HomeDir = ""

	idx := -1
	for i, o := range s.saved {
		if (c.ID != "" && o.ID == c.ID) || (c.ID == "" && sameTarget(o, c)) {
			idx = i
			break
		}
	}
	if idx >= 0 {
		c.ID = s.saved[idx].ID
		if password == "" {
			c.HasPassword = s.saved[idx].HasPassword
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if password != "" {
		if err := s.secrets.Set(c.ID, password); err != nil {
			return c, fmt.Errorf("failed to store password: %w", err)
		}
		c.HasPassword = true
	}

	if idx >= 0 {
		s.saved[idx] = c
	} else {
		s.saved = append(s.saved, c)
	}
	return c, s.prefs.Put(store.KeyRemoteConnections, s.saved)
}

// Find returns the saved connection with id.
func (s *State) Find(id string) (Connection, bool) {
	for _, c := range s.saved {
		if c.ID == id {
			return c, true
		}
	}
	return Connection{}, false
}

// Remove forgets a saved connection and its password.
func (s *State) Remove(id string) error {
	for i, c := range s.saved {
		if c.ID == id {
			s.saved = append(s.saved[:i], s.saved[i+1:]...)
			if err := s.secrets.Delete(id); err != nil {
				return fmt.Errorf("failed to delete password: %w", err)
			}
			return s.prefs.Put(store.KeyRemoteConnections, s.saved)
		}
	}
	return nil
}

// Password returns the stored password for a saved connection.
func (s *State) Password(id string) (string, bool) {
	pass, found, err := s.secrets.Get(id)
	if err != nil || !found {
		return "", false
	}
	return pass, true
}
