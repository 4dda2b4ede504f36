// Package watches loads the set of API paths the sync daemon polls.
package watches

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samvad-hq/tba-sync/internal/fileconf"
)

// Watch is a single API resource to keep in sync, e.g. "team/frc254".
type Watch struct {
	ID      string `json:"id" yaml:"id"`
	Path    string `json:"path" yaml:"path"`
	Enabled *bool  `json:"enabled" yaml:"enabled"`
}

// EnabledValue returns the enabled flag defaulting to true.
func (w Watch) EnabledValue() bool {
	if w.Enabled == nil {
		return true
	}
	return *w.Enabled
}

type fileRegistry struct {
	Watches []Watch `json:"watches" yaml:"watches"`
}

// Registry holds the validated watches loaded from a file.
type Registry struct {
	mu      sync.RWMutex
	watches []Watch
	idx     map[string]Watch
}

// LoadRegistry loads the watch registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	var file fileRegistry
	if err := fileconf.Load(path, "watches", &file); err != nil {
		return nil, err
	}
	return NewRegistry(file.Watches)
}

// NewRegistry validates ws and builds a Registry from them.
func NewRegistry(ws []Watch) (*Registry, error) {
	if len(ws) == 0 {
		return nil, errors.New("watches file contains no watches entries")
	}

	reg := &Registry{
		watches: make([]Watch, len(ws)),
		idx:     make(map[string]Watch, len(ws)),
	}
	for i := range ws {
		w := sanitizeWatch(ws[i])
		if err := validateWatch(w); err != nil {
			return nil, fmt.Errorf("watch[%d]: %w", i, err)
		}
		if _, exists := reg.idx[w.ID]; exists {
			return nil, fmt.Errorf("duplicate watch id %q", w.ID)
		}
		reg.watches[i] = w
		reg.idx[w.ID] = w
	}
	return reg, nil
}

func sanitizeWatch(w Watch) Watch {
	w.ID = strings.TrimSpace(w.ID)
	w.Path = strings.Trim(strings.TrimSpace(w.Path), "/")
	return w
}

func validateWatch(w Watch) error {
	if w.ID == "" {
		return errors.New("id is required")
	}
	if w.Path == "" {
		return fmt.Errorf("path is required for watch %q", w.ID)
	}
	if strings.Contains(w.Path, "://") {
		return fmt.Errorf("path for watch %q must be relative to the api base url", w.ID)
	}
	return nil
}

// ByID returns the watch by id.
func (r *Registry) ByID(id string) (Watch, bool) {
	if r == nil {
		return Watch{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Watch{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.idx[id]
	return w, ok
}

// All returns a copy of every configured watch.
func (r *Registry) All() []Watch {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Watch, len(r.watches))
	copy(out, r.watches)
	return out
}

// Enabled returns the watches that are enabled.
func (r *Registry) Enabled() []Watch {
	all := r.All()
	if len(all) == 0 {
		return nil
	}

	out := make([]Watch, 0, len(all))
	for _, w := range all {
		if w.EnabledValue() {
			out = append(out, w)
		}
	}
	return out
}
