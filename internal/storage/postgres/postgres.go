// Package postgres implements storage.Storage on Postgres through a
// pgx connection pool.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aanand-mishra/patients-api/internal/storage"
	"github.com/aanand-mishra/patients-api/internal/types"
)

const backend = "postgres"

var _ storage.Storage = (*Store)(nil)

const schema = `CREATE TABLE IF NOT EXISTS patients (
	position INTEGER          PRIMARY KEY,
	id       TEXT             NOT NULL UNIQUE,
	name     TEXT             NOT NULL,
	city     TEXT             NOT NULL,
	age      INTEGER          NOT NULL,
	gender   TEXT             NOT NULL,
	height   DOUBLE PRECISION NOT NULL,
	weight   DOUBLE PRECISION NOT NULL
)`

var columns = []string{"position", "id", "name", "city", "age", "gender", "height", "weight"}

// Store persists the collection into the patients table.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to dsn, pings the server and creates the table if needed.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure patients table: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Load reads every row in position order.
func (s *Store) Load(ctx context.Context) (*types.Collection, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, city, age, gender, height, weight FROM patients ORDER BY position`)
	if err != nil {
		return nil, storage.LoadError(backend, err)
	}
	defer rows.Close()

	c := types.NewCollection()
	for rows.Next() {
		var (
			id string
			r  types.Record
		)
		if err := rows.Scan(&id, &r.Name, &r.City, &r.Age, &r.Gender, &r.Height, &r.Weight); err != nil {
			return nil, storage.LoadError(backend, fmt.Errorf("scan: %w", err))
		}
		c.Insert(id, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.LoadError(backend, err)
	}
	return c, nil
}

// Save truncates the table and bulk-loads the collection with COPY, all
// in one transaction.
func (s *Store) Save(ctx context.Context, c *types.Collection) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storage.SaveError(backend, fmt.Errorf("begin: %w", err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM patients`); err != nil {
		return storage.SaveError(backend, fmt.Errorf("clear: %w", err))
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"patients"}, columns, pgx.CopyFromRows(copyRows(c))); err != nil {
		return storage.SaveError(backend, fmt.Errorf("copy: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return storage.SaveError(backend, fmt.Errorf("commit: %w", err))
	}
	return nil
}

func copyRows(c *types.Collection) [][]any {
	patients := c.Patients()
	rows := make([][]any, 0, len(patients))
	for i, p := range patients {
		rows = append(rows, []any{int32(i), p.ID, p.Name, p.City, int32(p.Age), p.Gender, p.Height, p.Weight})
	}
	return rows
}
