// Package source fetches raw stats JSON from URLs, object storage or local files.
package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/webpack-chart/internal/storage"
	"github.com/webpack-chart/pkg/compression"
	"github.com/webpack-chart/pkg/config"
	apperrors "github.com/webpack-chart/pkg/errors"
	"github.com/webpack-chart/pkg/telemetry"
	"github.com/webpack-chart/pkg/utils"
)

// SourceType identifies where a report location points.
type SourceType string

const (
	SourceTypeHTTP  SourceType = "http"
	SourceTypeStore SourceType = "store"
	SourceTypeFile  SourceType = "file"
)

// StorePrefix marks locations resolved through object storage, e.g. "store://reports/app.json".
const StorePrefix = "store://"

// Fetcher reads one kind of location.
type Fetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// Options configures a Loader.
type Options struct {
	Timeout     time.Duration
	MaxBodySize int64
	UserAgent   string
}

// DefaultOptions returns the defaults used by the CLI and the viewer.
func DefaultOptions() *Options {
	return &Options{
		Timeout:     30 * time.Second,
		MaxBodySize: 64 << 20,
		UserAgent:   "webpack-chart",
	}
}

// OptionsFromConfig converts fetch configuration.
func OptionsFromConfig(cfg config.FetchConfig) *Options {
	opts := DefaultOptions()
	if cfg.Timeout > 0 {
		opts.Timeout = cfg.Timeout
	}
	if cfg.MaxBodySize > 0 {
		opts.MaxBodySize = cfg.MaxBodySize
	}
	if cfg.UserAgent != "" {
		opts.UserAgent = cfg.UserAgent
	}
	return opts
}

// Loader dispatches a location to the fetcher for its type.
type Loader struct {
	fetchers map[SourceType]Fetcher
	logger   utils.Logger
	maxSize  int64
}

// NewLoader creates a loader for HTTP(S) and local files. A nil store disables
// store:// locations.
func NewLoader(opts *Options, store storage.Storage, logger utils.Logger) *Loader {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = utils.NewDefaultLogger(utils.LevelInfo, nil)
	}

	l := &Loader{
		fetchers: make(map[SourceType]Fetcher),
		logger:   logger,
		maxSize:  opts.MaxBodySize,
	}
	l.Register(SourceTypeHTTP, NewHTTPFetcher(opts))
	l.Register(SourceTypeFile, NewFileFetcher(opts.MaxBodySize))
	if store != nil {
		l.Register(SourceTypeStore, NewStoreFetcher(store, opts.MaxBodySize))
	}
	return l
}

// Register installs or replaces the fetcher for a source type.
func (l *Loader) Register(t SourceType, f Fetcher) {
	l.fetchers[t] = f
}

// TypeOf classifies a location.
func TypeOf(location string) SourceType {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return SourceTypeHTTP
	case strings.HasPrefix(lower, StorePrefix):
		return SourceTypeStore
	default:
		return SourceTypeFile
	}
}

// Load returns the bytes at location, decompressed when they are gzip or zstd.
func (l *Loader) Load(ctx context.Context, location string) ([]byte, error) {
	if strings.TrimSpace(location) == "" {
		return nil, invalidLocation("empty location")
	}

	t := TypeOf(location)
	ctx, span := telemetry.Tracer("source").Start(ctx, "source.Load")
	defer span.End()
	span.SetAttributes(
		attribute.String("source.type", string(t)),
		attribute.String("source.location", location),
	)

	f, ok := l.fetchers[t]
	if !ok {
		err := invalidLocation(fmt.Sprintf("no fetcher for %s locations", t))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	data, err := f.Fetch(ctx, location)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.logger.Warn("failed to load %s: %v", location, err)
		return nil, err
	}

	data, encoding, err := compression.Decode(data, l.maxSize)
	if err != nil {
		err = apperrors.Wrap(apperrors.CodeMalformedReport, fmt.Sprintf("failed to decompress %s", location), err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("source.bytes", len(data)),
		attribute.String("source.encoding", encoding.String()),
	)
	l.logger.WithFields(map[string]interface{}{
		"type":     t,
		"bytes":    len(data),
		"encoding": encoding,
	}).Debug("loaded %s in %s", location, time.Since(start))
	return data, nil
}
