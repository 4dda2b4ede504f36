package tba

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/tba-sync/pkg/httpclient"
)

const defaultTimeout = 15 * time.Second

// Config describes how a Client is assembled. It is read once by New.
type Config struct {
	BaseURL string
	Keys    KeySource
	Timeout time.Duration
	// Logger receives resty's internal diagnostics. *zap.SugaredLogger satisfies it.
	Logger resty.Logger
	// Codec overrides DefaultCodec when non-empty.
	Codec Codec
}

// Client issues authenticated requests against the API. It is immutable after
// New and safe for concurrent use.
type Client struct {
	rc      *resty.Client
	codec   Codec
	baseURL string
}

// New assembles a Client from cfg.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", base)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	codec := cfg.Codec
	if len(codec) == 0 {
		codec = DefaultCodec()
	}

	rc := httpclient.New(timeout)
	rc.SetBaseURL(base)
	rc.OnBeforeRequest(authMiddleware(cfg.Keys))
	if cfg.Logger != nil {
		rc.SetLogger(cfg.Logger)
	}

	return &Client{rc: rc, codec: codec, baseURL: base}, nil
}

// BaseURL returns the address requests are resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// Meta describes a completed response.
type Meta struct {
	StatusCode   int
	LastModified string
	NotModified  bool
}

// RequestOption customises a single request.
type RequestOption func(*resty.Request)

// WithHeader sets a caller header on the request.
func WithHeader(key, value string) RequestOption {
	return func(r *resty.Request) {
		r.SetHeader(key, value)
	}
}

// IfModifiedSince makes the request conditional on a previous Last-Modified value.
// An empty value leaves the request unconditional.
func IfModifiedSince(lastModified string) RequestOption {
	return func(r *resty.Request) {
		if lastModified = strings.TrimSpace(lastModified); lastModified != "" {
			r.SetHeader(HeaderIfModifiedSince, lastModified)
		}
	}
}

// Get requests path relative to the base URL and decodes a 2xx body into out.
// A 304 yields Meta.NotModified and leaves out untouched. Decode errors are
// returned as produced by the codec.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) (Meta, error) {
	if c == nil || c.rc == nil {
		return Meta{}, errors.New("tba client is not initialized")
	}

	req := c.rc.R().SetContext(ctx)
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}

	resp, err := req.Get(strings.TrimLeft(path, "/"))
	if err != nil {
		return Meta{}, fmt.Errorf("get %s: %w", path, err)
	}

	meta := Meta{
		StatusCode:   resp.StatusCode(),
		LastModified: resp.Header().Get(HeaderLastModified),
	}

	switch {
	case resp.StatusCode() == http.StatusNotModified:
		meta.NotModified = true
		return meta, nil
	case !resp.IsSuccess():
		return meta, &APIError{
			Status:  resp.StatusCode(),
			Message: resp.Status(),
			Body:    bodySnippet(resp.Body()),
		}
	}

	if out == nil {
		return meta, nil
	}
	if err := c.codec.Decode(resp.Body(), out); err != nil {
		return meta, err
	}
	return meta, nil
}

// Result is a decoded response body with its validator.
type Result[T any] struct {
	Body         T
	LastModified string
	NotModified  bool
}

// Fetch is the typed form of Client.Get.
func Fetch[T any](ctx context.Context, c *Client, path string, opts ...RequestOption) (Result[T], error) {
	var res Result[T]
	meta, err := c.Get(ctx, path, &res.Body, opts...)
	if err != nil {
		return Result[T]{}, err
	}
	res.LastModified = meta.LastModified
	res.NotModified = meta.NotModified
	return res, nil
}
