package app

import (
	"context"
	"fmt"

	"github.com/samvad-hq/tba-sync/pkg/tba"
)

const statusPath = "status"

// apiStatus mirrors the fields of /status the syncer cares about.
type apiStatus struct {
	CurrentSeason  int
	MaxSeason      int
	IsDatafeedDown bool
	DownEvents     []string
}

// probeStatus checks credentials and API health before the first poll.
func probeStatus(ctx context.Context, client *tba.Client) (apiStatus, error) {
	res, err := tba.Fetch[apiStatus](ctx, client, statusPath)
	if err != nil {
		return apiStatus{}, fmt.Errorf("probe api status: %w", err)
	}
	return res.Body, nil
}
