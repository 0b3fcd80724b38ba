// Package service implements the patient operations on top of an
// injected storage.Storage.
//
// Every call loads the collection fresh from storage; nothing is kept in
// memory between calls. Create serializes its load-check-insert-save
// sequence behind a mutex so two concurrent creates in one process can
// not overwrite each other. Processes sharing one store are not
// coordinated: the last save wins.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/aanand-mishra/patients-api/internal/storage"
	"github.com/aanand-mishra/patients-api/internal/types"
)

// Service exposes view, get, sort and create.
type Service struct {
	store storage.Storage

	// writeMu guards the load-mutate-save sequence of Create.
	writeMu sync.Mutex
}

// New returns a Service backed by store.
func New(store storage.Storage) *Service {
	return &Service{store: store}
}

// View returns the whole collection in storage order.
func (s *Service) View(ctx context.Context) (*types.Collection, error) {
	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	return c, nil
}

// Get returns the patient stored under id, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (types.Patient, error) {
	c, err := s.store.Load(ctx)
	if err != nil {
		return types.Patient{}, fmt.Errorf("load patients: %w", err)
	}

	p, ok := c.Patient(id)
	if !ok {
		return types.Patient{}, fmt.Errorf("patient %q: %w", id, ErrNotFound)
	}
	return p, nil
}

// Sort returns every patient ordered by field ("height", "weight" or
// "bmi") in order ("asc" or "desc"). Arguments are checked before the
// store is touched.
func (s *Service) Sort(ctx context.Context, field, order string) ([]types.Patient, error) {
	f, err := ParseSortField(field)
	if err != nil {
		return nil, err
	}
	o, err := ParseSortOrder(order)
	if err != nil {
		return nil, err
	}

	c, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}

	patients := c.Patients()
	sortPatients(patients, f, o)
	return patients, nil
}

// Create validates p, rejects an id that is already stored with
// ErrConflict, and otherwise saves the collection with p appended.
func (s *Service) Create(ctx context.Context, p types.Patient) (types.Patient, error) {
	if err := ValidatePatient(p); err != nil {
		return types.Patient{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	c, err := s.store.Load(ctx)
	if err != nil {
		return types.Patient{}, fmt.Errorf("load patients: %w", err)
	}

	if !c.Insert(p.ID, p.Record) {
		return types.Patient{}, fmt.Errorf("patient %q: %w", p.ID, ErrConflict)
	}

	if err := s.store.Save(ctx, c); err != nil {
		return types.Patient{}, fmt.Errorf("save patients: %w", err)
	}

	return p, nil
}
