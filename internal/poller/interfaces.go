package poller

import (
	"context"

	"github.com/samvad-hq/tba-sync/pkg/publishers"
	"github.com/samvad-hq/tba-sync/pkg/tba"
)

// APIClient issues conditional GETs against the API.
type APIClient interface {
	Get(ctx context.Context, path string, out any, opts ...tba.RequestOption) (tba.Meta, error)
}

// EventPublisher publishes changed resources downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// ValidatorStore remembers the last Last-Modified value per watch.
type ValidatorStore interface {
	LastModified(key string) (string, bool, error)
	SaveLastModified(key, value string) error
}
