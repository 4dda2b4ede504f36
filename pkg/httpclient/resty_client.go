package httpclient

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// New returns a resty.Client with the shared defaults applied. Callers layer
// base URLs, middleware and loggers on top.
func New(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	c.SetRetryCount(0)
	return c
}
