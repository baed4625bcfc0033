// Package store persists panel preferences (last path, view mode, sort
// settings, connections) as JSON values in a bbolt database.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Keys used by the panel.
const (
	KeyLastPath          = "lastPath"
	KeyViewMode          = "viewMode"
	KeySortBy            = "sortBy"
	KeySortOrder         = "sortOrder"
	KeyRemoteConnections = "remoteConnections"
	KeyActiveConnection  = "activeConnection"
	KeyLocale            = "locale"
	KeyUseTrash          = "useTrash"
	KeyAutoRefresh       = "autoRefresh"
)

var bucketName = []byte("prefs")

// Store is a small key/value store. It is safe for concurrent use.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) prefs.db in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := bolt.Open(filepath.Join(dir, "prefs.db"), 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores v under key as JSON.
func (s *Store) Put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), data)
	})
}

// Get decodes the value under key into v. It reports false when the
// key is absent.
func (s *Store) Get(key string, v any) (bool, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket(bucketName).Get([]byte(key)); raw != nil {
			data = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil || data == nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("invalid JSON for %s: %w", key, err)
	}
	return true, nil
}

// GetString returns the string under key, or def.
func (s *Store) GetString(key, def string) string {
	var v string
	if ok, err := s.Get(key, &v); !ok || err != nil {
		return def
	}
	return v
}

// GetBool returns the bool under key, or def.
func (s *Store) GetBool(key string, def bool) bool {
	var v bool
	if ok, err := s.Get(key, &v); !ok || err != nil {
		return def
	}
	return v
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
}
