// Package secret stores SSH passwords outside the persisted connection
// list: in the OS keyring when one is available, otherwise in memory.
package secret

import (
	"errors"
	"sync"

	"github.com/99designs/keyring"
)

const serviceName = "comfyui-data-manager.ssh"

// Store abstracts a secure credentials store keyed by connection id.
// Implementations are safe to call from multiple goroutines.
type Store interface {
	Get(id string) (pass string, found bool, err error)
	Set(id, pass string) error
	Delete(id string) error
}

type keyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore opens the OS keyring. Callers fall back to
// NewMemoryStore on error.
func NewKeyringStore() (Store, error) {
	r, err := keyring.Open(keyring.Config{ServiceName: serviceName})
	if err != nil {
		return nil, err
	}
	return &keyringStore{ring: r}, nil
}

func (s *keyringStore) Get(id string) (string, bool, error) {
	item, err := s.ring.Get(id)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(item.Data), true, nil
}

func (s *keyringStore) Set(id, pass string) error {
	return s.ring.Set(keyring.Item{
		Key:   id,
		Data:  []byte(pass),
		Label: serviceName,
	})
}

func (s *keyringStore) Delete(id string) error {
	err := s.ring.Remove(id)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil
	}
	return err
}

type memoryStore struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewMemoryStore returns a process-local store.
func NewMemoryStore() Store {
	return &memoryStore{items: make(map[string]string)}
}

func (s *memoryStore) Get(id string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.items[id]
	return p, ok, nil
}

func (s *memoryStore) Set(id, pass string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = pass
	return nil
}

func (s *memoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	return nil
}

// Open returns the keyring store, or a memory store when the keyring
// cannot be opened. The bool reports whether the keyring is in use.
func Open() (Store, bool) {
	if s, err := NewKeyringStore(); err == nil {
		return s, true
	}
	return NewMemoryStore(), false
}
