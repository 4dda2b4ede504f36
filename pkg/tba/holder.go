package tba

import (
	"sync"
	"sync/atomic"
)

// Holder lazily builds one shared Client. The first successful call to Client
// builds it; every later call returns the same instance until Invalidate.
type Holder struct {
	cfg   Config
	build func(Config) (*Client, error)

	mu     sync.Mutex
	client atomic.Pointer[Client]
}

// NewHolder returns an unbuilt holder for cfg.
func NewHolder(cfg Config) *Holder {
	return &Holder{cfg: cfg, build: New}
}

// Client returns the shared client, building it on first use. A failed build
// leaves the holder unbuilt.
func (h *Holder) Client() (*Client, error) {
	if c := h.client.Load(); c != nil {
		return c, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if c := h.client.Load(); c != nil {
		return c, nil
	}
	c, err := h.build(h.cfg)
	if err != nil {
		return nil, err
	}
	h.client.Store(c)
	return c, nil
}

// Built reports whether the shared client exists.
func (h *Holder) Built() bool {
	return h.client.Load() != nil
}

// Invalidate drops the shared client so the next Client call rebuilds it.
// Clients already handed out keep working.
func (h *Holder) Invalidate() {
	h.mu.Lock()
	h.client.Store(nil)
	h.mu.Unlock()
}
