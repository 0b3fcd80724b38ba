// Package jsonfile stores the patient collection as a single JSON object
// on disk: { "<id>": { "name": ..., "city": ..., ... }, ... }.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aanand-mishra/patients-api/internal/storage"
	"github.com/aanand-mishra/patients-api/internal/types"
)

const backend = "json"

// compile-time check that *File implements storage.Storage
var _ storage.Storage = (*File)(nil)

// File is a JSON-file backed storage.Storage.
type File struct {
	path string
}

// New returns a store for the JSON file at path. The file is not touched
// until the first Load or Save.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the file the store reads and writes.
func (f *File) Path() string { return f.path }

// EnsureExists writes an empty collection to the file, creating parent
// directories as needed, if it does not exist yet. It reports whether a
// file was created.
func (f *File) EnsureExists(ctx context.Context) (bool, error) {
	if _, err := os.Stat(f.path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, storage.LoadError(backend, err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return false, storage.SaveError(backend, err)
	}

	if err := f.Save(ctx, types.NewCollection()); err != nil {
		return false, err
	}
	return true, nil
}

// Load reads and decodes the whole file. A missing file is an error.
func (f *File) Load(ctx context.Context) (*types.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, storage.LoadError(backend, err)
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, storage.LoadError(backend, err)
	}

	c := types.NewCollection()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, storage.LoadError(backend, fmt.Errorf("decode %s: %w", f.path, err))
	}

	return c, nil
}

// Save encodes the collection into a temporary file next to the target
// and renames it into place, so readers never observe a half-written file.
func (f *File) Save(ctx context.Context, c *types.Collection) error {
	if err := ctx.Err(); err != nil {
		return storage.SaveError(backend, err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return storage.SaveError(backend, fmt.Errorf("encode: %w", err))
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return storage.SaveError(backend, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }() // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return storage.SaveError(backend, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return storage.SaveError(backend, err)
	}
	if err := tmp.Close(); err != nil {
		return storage.SaveError(backend, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return storage.SaveError(backend, err)
	}

	return nil
}
