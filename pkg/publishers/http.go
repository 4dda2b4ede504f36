package publishers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/samvad-hq/tba-sync/internal/logger"
	"github.com/samvad-hq/tba-sync/pkg/httpclient"
)

// Webhook headers mirroring the message attributes of the queue sinks.
const (
	headerWatchID      = "X-Watch-Id"
	headerWatchPath    = "X-Watch-Path"
	headerLastModified = "X-Source-Last-Modified"
)

// httpPublisher delivers events as JSON to a webhook.
type httpPublisher struct {
	id      string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
	log     logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	return &httpPublisher{
		id:      cfg.ID,
		method:  cfg.HTTP.Method,
		url:     cfg.HTTP.URL,
		headers: cfg.HTTP.Headers,
		client:  httpclient.New(time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second),
		log:     log,
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	req := h.client.R().
		SetContext(ctx).
		SetHeaders(h.headers).
		SetHeader("Content-Type", "application/json").
		SetBody(evt)

	attrs := evt.attributes()
	for key, header := range map[string]string{
		AttrWatchID:      headerWatchID,
		AttrPath:         headerWatchPath,
		AttrLastModified: headerLastModified,
	} {
		if v, ok := attrs[key]; ok {
			req.SetHeader(header, v)
		}
	}

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("http %s %s: %w", h.method, h.url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("http %s %s: status %d: %s", h.method, h.url, resp.StatusCode(), bodySnippet(resp.Body()))
	}
	h.log.DebugObj("webhook delivered", "publisher_delivery", map[string]any{
		"publisher_id": h.id,
		"watch_id":     evt.WatchID,
		"status":       resp.StatusCode(),
	})
	return nil
}

func bodySnippet(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
