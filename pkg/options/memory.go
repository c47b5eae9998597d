package options

import (
	"context"
	"sync"

	"github.com/goliatone/go-fleetform/pkg/model"
)

// MemoryStore keeps lists for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	lists map[string][]model.Option
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[string][]model.Option)}
}

func (s *MemoryStore) Get(_ context.Context, listName string) ([]model.Option, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	opts, ok := s.lists[listName]
	return opts, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, listName string, opts []model.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[listName] = cloneOptions(opts)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, listName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lists, listName)
	return nil
}
