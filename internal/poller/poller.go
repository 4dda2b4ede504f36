package poller

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvad-hq/tba-sync/internal/logger"
	"github.com/samvad-hq/tba-sync/pkg/publishers"
	"github.com/samvad-hq/tba-sync/pkg/tba"
	"github.com/samvad-hq/tba-sync/pkg/watches"
)

// Outcome of a single watch poll.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomePublished
)

// Service polls watches and publishes resources whose Last-Modified moved.
type Service struct {
	client    APIClient
	publisher EventPublisher
	store     ValidatorStore
	log       logger.Logger
}

// NewService wires a poller. A nil store disables conditional requests.
func NewService(client APIClient, pub EventPublisher, log logger.Logger, store ValidatorStore) *Service {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		client:    client,
		publisher: pub,
		store:     store,
		log:       log,
	}
}

// Run executes one polling pass over ws. A missing auth key stops the pass
// at the first watch; other per-watch failures are collected and joined.
func (s *Service) Run(ctx context.Context, ws []watches.Watch) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("poller service is not initialized")
	}
	if len(ws) == 0 {
		return fmt.Errorf("no watches configured for polling")
	}

	errs := s.runAll(ctx, ws)
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (s *Service) runAll(ctx context.Context, ws []watches.Watch) []error {
	errs := make([]error, 0, len(ws))

	for _, w := range ws {
		if ctx.Err() != nil {
			break
		}

		outcome, err := s.Poll(ctx, w)
		if err != nil {
			if errors.Is(err, tba.ErrAuthTokenMissing) {
				return append(errs, err)
			}
			errs = append(errs, err)
			s.log.ErrorObj("watch poll failed", "watch_error", map[string]any{
				"watch_id": w.ID,
				"path":     w.Path,
				"error":    err.Error(),
			})
			continue
		}

		s.log.DebugObj("watch polled", "watch_result", map[string]any{
			"watch_id":  w.ID,
			"published": outcome == OutcomePublished,
		})
	}

	return errs
}

// Poll fetches one watch, publishing it when the server reports a change.
func (s *Service) Poll(ctx context.Context, w watches.Watch) (Outcome, error) {
	var previous string
	if s.store != nil {
		lm, found, err := s.store.LastModified(w.ID)
		if err != nil {
			s.log.WarnObj("validator lookup failed; polling unconditionally", "validator_error", map[string]any{
				"watch_id": w.ID,
				"error":    err.Error(),
			})
		} else if found {
			previous = lm
		}
	}

	var body string
	meta, err := s.client.Get(ctx, w.Path, &body, tba.IfModifiedSince(previous))
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("poll watch %s: %w", w.ID, err)
	}
	if meta.NotModified {
		return OutcomeUnchanged, nil
	}

	evt := publishers.NewEvent(w.ID, w.Path, meta.LastModified, body)
	if s.publisher != nil {
		if _, err := s.publisher.Publish(ctx, evt); err != nil {
			return OutcomeUnchanged, fmt.Errorf("publish watch %s: %w", w.ID, err)
		}
	}

	if s.store != nil && meta.LastModified != "" {
		if err := s.store.SaveLastModified(w.ID, meta.LastModified); err != nil {
			return OutcomePublished, fmt.Errorf("save validator for watch %s: %w", w.ID, err)
		}
	}
	return OutcomePublished, nil
}
