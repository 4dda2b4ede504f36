package publishers

import "context"

// Publisher delivers events to one downstream sink. Implementations holding
// connections also implement io.Closer.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}
