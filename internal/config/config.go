// Package config handles loading and parsing application configuration.
// It supports two sources for the file path (in priority order):
//  1. An environment variable:  CONFIG_PATH=/path/to/config.yaml
//  2. A command-line flag:      --config=/path/to/config.yaml
//
// Every value in the file can be overridden by the environment variable
// named in its env:"..." tag.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers.
const (
	DriverJSON     = "json"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
	DriverMemory   = "memory"
)

// Config is the root configuration structure.
type Config struct {
	// Env controls log format and verbosity.
	// Valid values: "dev", "staging", "prod"
	Env string `yaml:"env" env:"ENV" env-default:"dev"`

	Storage Storage `yaml:"storage"`

	HTTPServer `yaml:"http_server"`
}

// Storage selects and configures the persistence backend.
type Storage struct {
	// Driver is one of json, sqlite, postgres, s3, memory.
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"json"`

	// Path is the JSON file (json driver) or database file (sqlite driver).
	Path string `yaml:"path" env:"STORAGE_PATH" env-default:"patients.json"`

	// CreateIfMissing seeds an empty collection file at startup when the
	// json driver's file does not exist yet.
	CreateIfMissing bool `yaml:"create_if_missing" env:"STORAGE_CREATE_IF_MISSING" env-default:"false"`

	// DSN is the Postgres connection string (postgres driver).
	DSN string `yaml:"dsn" env:"STORAGE_DSN"`

	S3 S3 `yaml:"s3"`
}

// S3 configures the s3 driver. With no access key the default AWS
// credential chain applies (AWS_ACCESS_KEY_ID, shared config, IAM role).
type S3 struct {
	Bucket    string `yaml:"bucket" env:"STORAGE_S3_BUCKET"`
	Key       string `yaml:"key" env:"STORAGE_S3_KEY" env-default:"patients.json"`
	Region    string `yaml:"region" env:"STORAGE_S3_REGION" env-default:"us-east-1"`
	Endpoint  string `yaml:"endpoint" env:"STORAGE_S3_ENDPOINT"`
	PathStyle bool   `yaml:"path_style" env:"STORAGE_S3_PATH_STYLE" env-default:"false"`

	AccessKeyID     string `yaml:"access_key_id" env:"STORAGE_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"STORAGE_S3_SECRET_ACCESS_KEY"`
	SessionToken    string `yaml:"session_token" env:"STORAGE_S3_SESSION_TOKEN"`
}

// HTTPServer holds settings specific to the HTTP server.
type HTTPServer struct {
	Addr            string        `yaml:"address" env:"HTTP_SERVER_ADDR" env-default:"localhost:8000"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_SERVER_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_SERVER_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SERVER_SHUTDOWN_TIMEOUT" env-default:"5s"`
}

// MustLoad reads, validates, and returns the application config. It
// exits the process on failure, so callers never see an invalid config.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")

	if configPath == "" {
		flags := flag.String("config", "", "Path to the configuration YAML file")
		flag.Parse()
		configPath = *flags
	}

	if configPath == "" {
		log.Fatal("config path is not set: use --config flag or CONFIG_PATH env var")
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err.Error())
	}

	return cfg
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the selected driver has what it needs.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverJSON, DriverSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s driver", c.Storage.Driver)
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the postgres driver")
		}
	case DriverS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required for the s3 driver")
		}
		if c.Storage.S3.Key == "" {
			return errors.New("storage.s3.key is required for the s3 driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}
