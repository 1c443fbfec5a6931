package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"
)

// COSConfig holds COS-specific configuration.
type COSConfig struct {
	Bucket    string
	Region    string
	SecretID  string
	SecretKey string
	Domain    string // e.g., "myqcloud.com"
	Scheme    string // e.g., "https" or "http"
}

// COSStorage implements Storage on Tencent Cloud COS.
type COSStorage struct {
	client    *cos.Client
	bucketURL *url.URL
}

// NewCOSStorage creates a new COSStorage instance.
func NewCOSStorage(cfg *COSConfig) (*COSStorage, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("bucket and region are required for COS storage")
	}
	if cfg.SecretID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("credentials are required for COS storage")
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "myqcloud.com"
	}
	scheme := cfg.Scheme
	if scheme == "" {
		scheme = "https"
	}

	bucketURL, err := url.Parse(fmt.Sprintf("%s://%s.cos.%s.%s", scheme, cfg.Bucket, cfg.Region, domain))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bucket URL: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: bucketURL}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	return &COSStorage{client: client, bucketURL: bucketURL}, nil
}

// Put uploads reader to key.
func (s *COSStorage) Put(ctx context.Context, key string, reader io.Reader) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	if _, err := s.client.Object.Put(ctx, key, reader, nil); err != nil {
		return storageError("failed to upload to COS", err)
	}
	return nil
}

// PutFile uploads a local file to key.
func (s *COSStorage) PutFile(ctx context.Context, key string, localPath string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	if _, err := s.client.Object.PutFromFile(ctx, key, localPath, nil); err != nil {
		return storageError("failed to upload file to COS", err)
	}
	return nil
}

// Get downloads the object at key.
func (s *COSStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	key, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Object.Get(ctx, key, nil)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return nil, notFound(key, err)
		}
		return nil, storageError("failed to download from COS", err)
	}
	return resp.Body, nil
}

// Delete deletes the object at key.
func (s *COSStorage) Delete(ctx context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	if _, err := s.client.Object.Delete(ctx, key, nil); err != nil && !cos.IsNotFoundError(err) {
		return storageError("failed to delete from COS", err)
	}
	return nil
}

// Exists checks if an object exists at key.
func (s *COSStorage) Exists(ctx context.Context, key string) (bool, error) {
	key, err := CleanKey(key)
	if err != nil {
		return false, err
	}
	ok, err := s.client.Object.IsExist(ctx, key)
	if err != nil {
		return false, storageError("failed to check existence in COS", err)
	}
	return ok, nil
}

// URL returns the public URL for key.
func (s *COSStorage) URL(key string) string {
	cleaned, err := CleanKey(key)
	if err != nil {
		return ""
	}
	return s.bucketURL.String() + "/" + cleaned
}
