// Package source loads raw graph documents from where they are kept.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/ritzau/causegraph/pkg/config"
	"github.com/ritzau/causegraph/pkg/model"
)

// ErrUnsupportedLocation is returned for locations no source can read.
var ErrUnsupportedLocation = errors.New("unsupported data location")

// Source represents a place a graph document is read from.
type Source interface {
	// Name returns a human readable description (e.g. "file:graph.json").
	Name() string

	// Load reads and decodes the document.
	// It should respect the context for cancellation.
	Load(ctx context.Context) (model.RawGraph, error)
}

// Open picks a source for the configured location: s3://bucket/key reads
// from S3, anything without a scheme (or file://) is a local path.
func Open(ctx context.Context, cfg config.DataConfig) (Source, error) {
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		return nil, fmt.Errorf("%w: empty location", ErrUnsupportedLocation)
	}

	scheme, rest, found := strings.Cut(location, "://")
	if !found {
		return NewFileSource(location), nil
	}

	switch strings.ToLower(scheme) {
	case "file":
		return NewFileSource(rest), nil
	case "s3":
		bucket, key, err := ParseS3URL(location)
		if err != nil {
			return nil, err
		}
		return NewS3Source(ctx, bucket, key, cfg.Region, cfg.Endpoint)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocation, location)
	}
}

// ParseS3URL splits s3://bucket/key into its bucket and key.
func ParseS3URL(location string) (bucket, key string, err error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 location %q: %w", location, err)
	}
	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedLocation, location)
	}

	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid s3 location %q: expected s3://bucket/key", location)
	}
	return bucket, key, nil
}
