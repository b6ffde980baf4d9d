package memory

import (
	"context"
	"sync"

	"github.com/convosphere/convosphere-server/internal/storage"
)

// Store is an in-memory storage.Store, used by tests.
type Store struct {
	mx *sync.Mutex
	db map[string][]byte
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		mx: &sync.Mutex{},
		db: make(map[string][]byte),
	}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	value, ok := s.db[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	s.db[key] = stored
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mx.Lock()
	defer s.mx.Unlock()

	delete(s.db, key)
	return nil
}

func (s *Store) Close() error {
	return nil
}
