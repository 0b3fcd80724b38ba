// Package storage defines the Storage interface that every persistence
// backend must satisfy.
//
// The collection is always moved as a whole: Load reads every record,
// Save overwrites every record. There is no partial read or write, so a
// backend only has to know how to put one serialized collection somewhere
// and get it back.
//
// The HTTP handlers and the service depend ONLY on this interface, never
// on a concrete backend, so the JSON file can be swapped for SQLite,
// Postgres or S3 through configuration alone.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aanand-mishra/patients-api/internal/types"
)

// ErrStorage matches every error returned by a backend.
//
//	if errors.Is(err, storage.ErrStorage) { ... }
var ErrStorage = errors.New("storage error")

// Storage loads and saves the whole patient collection.
type Storage interface {
	// Load reads the entire persisted collection. A missing or corrupt
	// resource is an error.
	Load(ctx context.Context) (*types.Collection, error)

	// Save overwrites the entire persisted collection.
	Save(ctx context.Context, c *types.Collection) error
}

// Error wraps a backend failure with the operation that caused it.
type Error struct {
	Backend string // "json", "sqlite", ...
	Op      string // "load" or "save"
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes every *Error match ErrStorage.
func (e *Error) Is(target error) bool { return target == ErrStorage }

// LoadError wraps err as a failed load on backend.
func LoadError(backend string, err error) error {
	return &Error{Backend: backend, Op: "load", Err: err}
}

// SaveError wraps err as a failed save on backend.
func SaveError(backend string, err error) error {
	return &Error{Backend: backend, Op: "save", Err: err}
}
