// Package s3 implements storage.Storage as a single JSON object in an
// S3-compatible bucket (AWS S3 or MinIO).
package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/aanand-mishra/patients-api/internal/storage"
	"github.com/aanand-mishra/patients-api/internal/types"
)

const (
	backend       = "s3"
	defaultRegion = "us-east-1"
	contentType   = "application/json"
)

// ErrObjectNotFound is the cause of a Load error when the object is absent.
var ErrObjectNotFound = errors.New("object not found")

var _ storage.Storage = (*Store)(nil)

// Config holds explicit construction parameters. Credentials fall back to
// the default AWS chain when AccessKeyID is empty.
type Config struct {
	Region          string
	Bucket          string
	Key             string
	Endpoint        string // optional; custom endpoint such as MinIO
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool

	// HTTPClient overrides the transport; tests use it to avoid the network.
	HTTPClient *http.Client
}

// Store reads and writes the collection object.
type Store struct {
	client *s3.Client
	bucket string
	key    string
}

// New creates a store from cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	if cfg.Key == "" {
		return nil, errors.New("s3 key required")
	}
	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})

	return &Store{client: client, bucket: cfg.Bucket, key: cfg.Key}, nil
}

// Load fetches and decodes the object. A missing object is an error
// wrapping ErrObjectNotFound.
func (s *Store) Load(ctx context.Context) (*types.Collection, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &s.key})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.LoadError(backend, fmt.Errorf("s3://%s/%s: %w", s.bucket, s.key, ErrObjectNotFound))
		}
		return nil, storage.LoadError(backend, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, storage.LoadError(backend, fmt.Errorf("read body: %w", err))
	}

	c := types.NewCollection()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, storage.LoadError(backend, fmt.Errorf("decode s3://%s/%s: %w", s.bucket, s.key, err))
	}
	return c, nil
}

// Save overwrites the object with the encoded collection.
func (s *Store) Save(ctx context.Context, c *types.Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return storage.SaveError(backend, fmt.Errorf("encode: %w", err))
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &s.bucket,
		Key:           &s.key,
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return storage.SaveError(backend, err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
