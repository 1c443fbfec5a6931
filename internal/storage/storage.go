// Package storage keeps stats reports and rendered trees in object storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/webpack-chart/pkg/config"
	apperrors "github.com/webpack-chart/pkg/errors"
)

// Storage defines the interface for object storage operations.
type Storage interface {
	// Put stores the contents of reader under key, replacing any existing object.
	Put(ctx context.Context, key string, reader io.Reader) error

	// PutFile stores a local file under key.
	PutFile(ctx context.Context, key string, localPath string) error

	// Get opens the object at key. A missing object yields a NOT_FOUND error.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object at key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if an object exists at key.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns where the object can be fetched from.
	URL(key string) string
}

// StorageType represents the type of storage backend.
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeCOS   StorageType = "cos"
	StorageTypeS3    StorageType = "s3"
)

// NewStorage creates a new Storage instance based on the configuration.
func NewStorage(cfg *config.StorageConfig) (Storage, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	switch StorageType(cfg.Type) {
	case StorageTypeCOS:
		return NewCOSStorage(&COSConfig{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
			Domain:    cfg.Domain,
			Scheme:    cfg.Scheme,
		})
	case StorageTypeS3:
		return NewS3Storage(&S3Config{
			Endpoint:  cfg.Endpoint,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			AccessKey: cfg.SecretID,
			SecretKey: cfg.SecretKey,
			UseSSL:    cfg.UseSSL,
		})
	default:
		return NewLocalStorage(cfg.LocalPath)
	}
}

// ValidateConfig validates the storage configuration.
func ValidateConfig(cfg *config.StorageConfig) error {
	if cfg == nil {
		return fmt.Errorf("storage config is nil")
	}

	switch StorageType(cfg.Type) {
	case "", StorageTypeLocal:
		if cfg.LocalPath == "" {
			return fmt.Errorf("local storage path is required")
		}
	case StorageTypeCOS:
		if cfg.Bucket == "" {
			return fmt.Errorf("COS bucket is required")
		}
		if cfg.Region == "" {
			return fmt.Errorf("COS region is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("COS credentials are required")
		}
	case StorageTypeS3:
		if cfg.Endpoint == "" {
			return fmt.Errorf("S3 endpoint is required")
		}
		if cfg.Bucket == "" {
			return fmt.Errorf("S3 bucket is required")
		}
		if cfg.SecretID == "" || cfg.SecretKey == "" {
			return fmt.Errorf("S3 credentials are required")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	return nil
}

// CleanKey normalises an object key and rejects keys that escape the store.
func CleanKey(key string) (string, error) {
	slashed := strings.ReplaceAll(key, "\\", "/")
	for _, segment := range strings.Split(slashed, "/") {
		if segment == ".." {
			return "", invalidKey(key)
		}
	}

	cleaned := strings.TrimPrefix(path.Clean("/"+slashed), "/")
	if cleaned == "" {
		return "", invalidKey(key)
	}
	return cleaned, nil
}

func invalidKey(key string) error {
	return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("invalid object key %q", key), nil)
}

func notFound(key string, err error) error {
	return apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("object %s not found", key), err)
}

func storageError(msg string, err error) error {
	return apperrors.Wrap(apperrors.CodeStorageError, msg, err)
}
