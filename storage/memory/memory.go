// Package memory provides a thread-safe in-memory implementation of
// storage.Store. Suitable for tests and single-process use.
package memory

import (
	"sync"

	"github.com/openjudge/judgectl/storage"
)

// Store is an in-memory storage.Store.
type Store struct {
	mu   sync.RWMutex
	data []byte
	set  bool
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a new empty in-memory Store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Load() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), s.data...), nil
}

func (s *Store) Save(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.set = true
	return nil
}

func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = nil
	s.set = false
	return nil
}
