// Package sqlite implements storage.Storage on top of a SQLite database.
//
// The driver is github.com/mattn/go-sqlite3, registered with
// database/sql through the blank import below. The collection lives in
// a single table; position keeps the storage order of the collection.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aanand-mishra/patients-api/internal/storage"
	"github.com/aanand-mishra/patients-api/internal/types"

	_ "github.com/mattn/go-sqlite3"
)

const backend = "sqlite"

var _ storage.Storage = (*SQLite)(nil)

const schema = `
	CREATE TABLE IF NOT EXISTS patients (
		position INTEGER PRIMARY KEY,
		id       TEXT    NOT NULL UNIQUE,
		name     TEXT    NOT NULL,
		city     TEXT    NOT NULL,
		age      INTEGER NOT NULL,
		gender   TEXT    NOT NULL,
		height   REAL    NOT NULL,
		weight   REAL    NOT NULL
	)
`

// SQLite wraps a *sql.DB connection pool.
type SQLite struct {
	Db *sql.DB
}

// New opens (or creates) the database file at path and makes sure the
// patients table exists.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// One writer at a time; SQLite would otherwise answer concurrent
	// writers with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// Load reads every row ordered by position.
func (s *SQLite) Load(ctx context.Context) (*types.Collection, error) {
	rows, err := s.Db.QueryContext(ctx,
		"SELECT id, name, city, age, gender, height, weight FROM patients ORDER BY position",
	)
	if err != nil {
		return nil, storage.LoadError(backend, fmt.Errorf("query: %w", err))
	}
	defer rows.Close()

	c := types.NewCollection()
	for rows.Next() {
		var (
			id string
			r  types.Record
		)
		if err := rows.Scan(&id, &r.Name, &r.City, &r.Age, &r.Gender, &r.Height, &r.Weight); err != nil {
			return nil, storage.LoadError(backend, fmt.Errorf("scan row: %w", err))
		}
		c.Insert(id, r)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.LoadError(backend, fmt.Errorf("rows iteration: %w", err))
	}

	return c, nil
}

// Save replaces every row inside one transaction.
func (s *SQLite) Save(ctx context.Context, c *types.Collection) error {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return storage.SaveError(backend, fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback() }() // no-op after Commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM patients"); err != nil {
		return storage.SaveError(backend, fmt.Errorf("clear: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO patients (position, id, name, city, age, gender, height, weight) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	)
	if err != nil {
		return storage.SaveError(backend, fmt.Errorf("prepare: %w", err))
	}
	defer stmt.Close()

	for i, p := range c.Patients() {
		if _, err := stmt.ExecContext(ctx, i, p.ID, p.Name, p.City, p.Age, p.Gender, p.Height, p.Weight); err != nil {
			return storage.SaveError(backend, fmt.Errorf("insert %q: %w", p.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.SaveError(backend, fmt.Errorf("commit: %w", err))
	}

	return nil
}
