package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/webpack-chart/internal/storage"
	apperrors "github.com/webpack-chart/pkg/errors"
)

// HTTPFetcher GETs reports over HTTP(S).
type HTTPFetcher struct {
	client      *http.Client
	maxBodySize int64
	userAgent   string
}

// NewHTTPFetcher creates an HTTP fetcher.
func NewHTTPFetcher(opts *Options) *HTTPFetcher {
	return &HTTPFetcher{
		client:      &http.Client{Timeout: opts.Timeout},
		maxBodySize: opts.MaxBodySize,
		userAgent:   opts.UserAgent,
	}
}

// Fetch downloads location and fails on any non-2xx status.
func (f *HTTPFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, invalidLocation(fmt.Sprintf("invalid URL %q: %v", location, err))
	}
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fetchError(fmt.Sprintf("request to %s failed", location), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("GET %s returned %s", location, resp.Status)
		if resp.StatusCode == http.StatusNotFound {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, msg, nil)
		}
		return nil, fetchError(msg, nil)
	}

	return readLimited(resp.Body, f.maxBodySize, location)
}

// FileFetcher reads reports from the local filesystem.
type FileFetcher struct {
	maxBodySize int64
}

// NewFileFetcher creates a file fetcher.
func NewFileFetcher(maxBodySize int64) *FileFetcher {
	return &FileFetcher{maxBodySize: maxBodySize}
}

// Fetch reads the file at location; a "file://" prefix is accepted.
func (f *FileFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimPrefix(location, "file://")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.CodeNotFound, fmt.Sprintf("file %s not found", path), err)
		}
		return nil, fetchError(fmt.Sprintf("failed to open %s", path), err)
	}
	defer file.Close()

	return readLimited(file, f.maxBodySize, path)
}

// StoreFetcher reads "store://<key>" locations from object storage.
type StoreFetcher struct {
	store       storage.Storage
	maxBodySize int64
}

// NewStoreFetcher creates a storage-backed fetcher.
func NewStoreFetcher(store storage.Storage, maxBodySize int64) *StoreFetcher {
	return &StoreFetcher{store: store, maxBodySize: maxBodySize}
}

// Fetch reads the object named after the store:// prefix.
func (f *StoreFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	key := location[len(StorePrefix):]
	rc, err := f.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return readLimited(rc, f.maxBodySize, location)
}

func readLimited(r io.Reader, limit int64, location string) ([]byte, error) {
	if limit <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fetchError(fmt.Sprintf("failed to read %s", location), err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fetchError(fmt.Sprintf("failed to read %s", location), err)
	}
	if int64(len(data)) > limit {
		return nil, fetchError(fmt.Sprintf("%s exceeds %d bytes", location, limit), nil)
	}
	return data, nil
}

func fetchError(msg string, err error) error {
	return apperrors.Wrap(apperrors.CodeFetchError, msg, err)
}

func invalidLocation(msg string) error {
	return apperrors.Wrap(apperrors.CodeInvalidInput, msg, nil)
}
