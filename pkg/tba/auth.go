package tba

import (
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

// KeySource supplies the auth key read on every outgoing request.
type KeySource interface {
	AuthKey() string
}

// StaticKey is a KeySource fixed at construction time.
type StaticKey string

func (k StaticKey) AuthKey() string { return string(k) }

// Credentials is a KeySource that may be set after the client is built.
// The zero value has no key.
type Credentials struct {
	key atomic.Pointer[string]
}

// NewCredentials returns Credentials holding key.
func NewCredentials(key string) *Credentials {
	c := &Credentials{}
	c.Set(key)
	return c
}

// Set replaces the stored key.
func (c *Credentials) Set(key string) {
	key = strings.TrimSpace(key)
	c.key.Store(&key)
}

// AuthKey returns the stored key or "" if none was set.
func (c *Credentials) AuthKey() string {
	if c == nil {
		return ""
	}
	if p := c.key.Load(); p != nil {
		return *p
	}
	return ""
}

// authMiddleware rejects requests without a non-blank key and appends the identification
// headers to the request-local header set. Caller headers with the same name
// are kept; the values are appended after them.
func authMiddleware(keys KeySource) resty.RequestMiddleware {
	return func(_ *resty.Client, r *resty.Request) error {
		var key string
		if keys != nil {
			key = strings.TrimSpace(keys.AuthKey())
		}
		if key == "" {
			return ErrAuthTokenMissing
		}

		r.Header.Add(HeaderUserAgent, UserAgent)
		r.Header.Add(HeaderAuthKey, key)
		r.Header.Add(HeaderSortingType, SortingType)
		r.Header.Add(HeaderCharset, Charset)
		return nil
	}
}
