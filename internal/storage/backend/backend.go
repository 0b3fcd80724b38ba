// Package backend opens the storage.Storage selected by configuration.
package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aanand-mishra/patients-api/internal/config"
	"github.com/aanand-mishra/patients-api/internal/storage"
	"github.com/aanand-mishra/patients-api/internal/storage/jsonfile"
	"github.com/aanand-mishra/patients-api/internal/storage/memory"
	"github.com/aanand-mishra/patients-api/internal/storage/postgres"
	"github.com/aanand-mishra/patients-api/internal/storage/s3"
	"github.com/aanand-mishra/patients-api/internal/storage/sqlite"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the configured backend. The returned Closer releases any
// connection the backend holds and is never nil.
func Open(ctx context.Context, cfg config.Storage) (storage.Storage, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverJSON:
		f := jsonfile.New(cfg.Path)
		if cfg.CreateIfMissing {
			created, err := f.EnsureExists(ctx)
			if err != nil {
				return nil, nil, err
			}
			if created {
				slog.Info("created empty patients file", slog.String("path", cfg.Path))
			}
		}
		return f, nopCloser{}, nil

	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case config.DriverS3:
		s, err := s3.New(ctx, s3Config(cfg.S3))
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil

	case config.DriverMemory:
		return memory.New(nil), nopCloser{}, nil
	}

	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

func s3Config(cfg config.S3) s3.Config {
	return s3.Config{
		Region:          cfg.Region,
		Bucket:          cfg.Bucket,
		Key:             cfg.Key,
		Endpoint:        cfg.Endpoint,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		SessionToken:    cfg.SessionToken,
		PathStyle:       cfg.PathStyle,
	}
}
