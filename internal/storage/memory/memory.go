// Package memory provides an in-process storage.Storage. Data lives only
// as long as the process; useful for tests and throwaway demos.
package memory

import (
	"context"
	"sync"

	"github.com/aanand-mishra/patients-api/internal/storage"
	"github.com/aanand-mishra/patients-api/internal/types"
)

const backend = "memory"

var _ storage.Storage = (*Store)(nil)

// Store keeps a private copy of the collection. Load and Save copy in and
// out so callers can never alias the stored state.
type Store struct {
	mu   sync.Mutex
	data *types.Collection

	// saves counts successful Save calls.
	saves int
}

// New returns a store holding seed, or an empty collection if seed is nil.
func New(seed *types.Collection) *Store {
	if seed == nil {
		seed = types.NewCollection()
	}
	return &Store{data: seed.Clone()}
}

// Load returns a copy of the stored collection.
func (s *Store) Load(ctx context.Context) (*types.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.LoadError(backend, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone(), nil
}

// Save replaces the stored collection with a copy of c.
func (s *Store) Save(ctx context.Context, c *types.Collection) error {
	if err := ctx.Err(); err != nil {
		return storage.SaveError(backend, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = c.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
