package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/tba-sync/internal/config"
	"github.com/samvad-hq/tba-sync/internal/logger"
	"github.com/samvad-hq/tba-sync/internal/poller"
	"github.com/samvad-hq/tba-sync/internal/storage"
	"github.com/samvad-hq/tba-sync/pkg/publishers"
	"github.com/samvad-hq/tba-sync/pkg/tba"
	"github.com/samvad-hq/tba-sync/pkg/watches"
)

// Syncer is the sync daemon runtime. It owns the shared API client, polls the
// configured watches on a fixed interval and fans changed resources out to the
// publishers. It also handles storage initialization and cleanup.
type Syncer struct {
	cfg          *config.Config
	api          *tba.Holder
	watchReg     *watches.Registry
	fanout       *publishers.Fanout
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store
}

// NewSyncer builds a syncer runtime from config files.
func NewSyncer(ctx context.Context, cfg *config.Config, log logger.Logger) (*Syncer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	apiCfg := tba.Config{
		BaseURL: cfg.TBABaseURL,
		Keys:    tba.NewCredentials(cfg.TBAAuthKey),
		Timeout: cfg.TBATimeout,
	}
	if logger.S != nil {
		apiCfg.Logger = logger.S
	}
	holder := tba.NewHolder(apiCfg)

	watchReg, err := watches.LoadRegistry(cfg.WatchesFile)
	if err != nil {
		return nil, fmt.Errorf("load watches registry: %w", err)
	}
	enabledWatches := watchReg.Enabled()
	watchIDs := make([]string, 0, len(enabledWatches))
	for _, w := range enabledWatches {
		watchIDs = append(watchIDs, w.ID)
	}
	log.InfoObj("watches registry loaded", "watches_meta", map[string]any{
		"count": len(watchIDs),
		"ids":   watchIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		ValidatorTTL:    cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"validator_ttl_seconds":    int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return &Syncer{
		cfg:          cfg,
		api:          holder,
		watchReg:     watchReg,
		fanout:       fanout,
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run starts the poll loop until the context is cancelled, which is a clean
// exit. A missing auth key ends the loop with tba.ErrAuthTokenMissing.
func (s *Syncer) Run(ctx context.Context) error {
	if s == nil || s.api == nil {
		return fmt.Errorf("syncer is not initialized")
	}
	defer s.close()

	client, err := s.api.Client()
	if err != nil {
		return fmt.Errorf("build api client: %w", err)
	}
	svc := poller.NewService(client, s.fanout, s.log, s.store)

	ws := s.watchReg.Enabled()
	if len(ws) == 0 {
		s.log.WarnObj("no watches enabled; syncer idle", "watches_file", s.cfg.WatchesFile)
		<-ctx.Done()
		s.log.InfoObj("syncer loop exiting", "reason", ctx.Err().Error())
		return nil
	}

	status, err := probeStatus(ctx, client)
	switch {
	case errors.Is(err, tba.ErrAuthTokenMissing):
		return err
	case err != nil:
		s.log.WarnObj("api status probe failed", "error", err.Error())
	case status.IsDatafeedDown:
		s.log.WarnObj("api reports datafeed down", "api_status", status)
	default:
		s.log.InfoObj("api status", "api_status", status)
	}

	s.log.InfoObj("syncer loop starting", "syncer_state", map[string]any{
		"watches_count":    len(ws),
		"publishers_count": s.fanout.Size(),
		"poll_interval":    s.pollInterval.String(),
		"base_url":         client.BaseURL(),
	})

	if err := s.runOnce(ctx, svc, ws); err != nil {
		if errors.Is(err, tba.ErrAuthTokenMissing) {
			return err
		}
		s.log.ErrorObj("initial poll failed", "error", err.Error())
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.InfoObj("syncer loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := s.runOnce(ctx, svc, ws); err != nil {
				if errors.Is(err, tba.ErrAuthTokenMissing) {
					return err
				}
				s.log.ErrorObj("scheduled poll failed", "error", err.Error())
			}
		}
	}
}

// runOnce performs a single poll pass across all watches.
func (s *Syncer) runOnce(ctx context.Context, svc *poller.Service, ws []watches.Watch) error {
	start := time.Now()
	s.log.InfoObj("poll started", "poll_meta", map[string]any{
		"watches_count": len(ws),
		"started_at":    start.UTC(),
	})
	if err := svc.Run(ctx, ws); err != nil {
		return err
	}
	s.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"watches_count": len(ws),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}

// close releases the storage backend and publishers, logging any errors encountered.
func (s *Syncer) close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
	if err := s.fanout.Close(); err != nil {
		s.log.ErrorObj("publishers close failed", "error", err.Error())
	}
}
