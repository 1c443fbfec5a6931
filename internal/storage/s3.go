package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config holds configuration for S3-compatible services such as MinIO.
type S3Config struct {
	Endpoint  string // host[:port], no scheme
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Storage implements Storage on an S3-compatible bucket.
type S3Storage struct {
	client *minio.Client
	bucket string
}

// NewS3Storage creates a new S3Storage instance. No request is made until first use.
func NewS3Storage(cfg *S3Config) (*S3Storage, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("endpoint and bucket are required for S3 storage")
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &S3Storage{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads reader to key. The body is buffered so the upload is a single PUT.
func (s *S3Storage) Put(ctx context.Context, key string, reader io.Reader) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return storageError("failed to read upload body", err)
	}

	_, err = s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(key),
	})
	if err != nil {
		return storageError("failed to upload to S3", err)
	}
	return nil
}

// PutFile uploads a local file to key.
func (s *S3Storage) PutFile(ctx context.Context, key string, localPath string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType(key),
	})
	if err != nil {
		return storageError("failed to upload file to S3", err)
	}
	return nil
}

// Get downloads the object at key.
func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}

	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isS3NotFound(err) {
			return nil, notFound(key, err)
		}
		return nil, storageError("failed to get object info", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, storageError("failed to download from S3", err)
	}
	return obj, nil
}

// Delete deletes the object at key.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil && !isS3NotFound(err) {
		return storageError("failed to delete from S3", err)
	}
	return nil
}

// Exists checks if an object exists at key.
func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	key, err := CleanKey(key)
	if err != nil {
		return false, err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isS3NotFound(err) {
			return false, nil
		}
		return false, storageError("failed to check existence in S3", err)
	}
	return true, nil
}

// URL returns the path-style URL for key.
func (s *S3Storage) URL(key string) string {
	cleaned, err := CleanKey(key)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL().String(), s.bucket, cleaned)
}

func isS3NotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

func contentType(key string) string {
	switch {
	case strings.HasSuffix(key, ".json"):
		return "application/json"
	case strings.HasSuffix(key, ".gz"):
		return "application/gzip"
	default:
		return "text/plain; charset=utf-8"
	}
}
