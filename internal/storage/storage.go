package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps the Last-Modified validator seen for each watch so
// polls can be made conditional. Response bodies are never stored.

// Store tracks validators keyed by watch id.
type Store interface {
	Close() error
	LastModified(key string) (string, bool, error)
	SaveLastModified(key, value string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ValidatorTTL    time.Duration
	CleanupInterval time.Duration
}

const (
	defaultValidatorTTL    = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ValidatorTTL <= 0 {
		opts.ValidatorTTL = defaultValidatorTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                               { return nil }
func (noopStore) LastModified(string) (string, bool, error) { return "", false, nil }
func (noopStore) SaveLastModified(string, string) error      { return nil }
