package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/Wealth-Tracker-Backend/internal/model"
)

// StaleRefresher re-fetches expired cache entries.
// *service.PriceService implements it.
type StaleRefresher interface {
	RefreshStale(ctx context.Context) (int, []model.FetchFailure, error)
}

// PriceRefreshJob refreshes every stale price in the cache
type PriceRefreshJob struct {
	refresher StaleRefresher
	timeout   time.Duration
	log       zerolog.Logger
}

// NewPriceRefreshJob creates a new price refresh job.
// Each run is bounded by timeout; zero means five minutes.
func NewPriceRefreshJob(refresher StaleRefresher, timeout time.Duration, log zerolog.Logger) *PriceRefreshJob {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &PriceRefreshJob{
		refresher: refresher,
		timeout:   timeout,
		log:       log.With().Str("job", "price-refresh").Logger(),
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price-refresh"
}

// Run refreshes stale entries. Individual fetch failures are logged, not returned.
func (j *PriceRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	refreshed, failures, err := j.refresher.RefreshStale(ctx)
	if err != nil {
		return err
	}

	j.log.Info().
		Int("refreshed", refreshed).
		Int("failed", len(failures)).
		Msg("price refresh finished")
	return nil
}
