package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/backtest"
	"github.com/nmillrr/sec-clearance-algo/internal/engine"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

// RunStore persists finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, result *engine.Result) (int64, error)
}

// RefreshJob re-runs the backtest nightly over a trailing filing window
// so stored metrics track newly indexed filings.
type RefreshJob struct {
	service    *backtest.Service
	repo       RunStore
	logger     *logger.Logger
	windowDays int
}

// NewRefreshJob creates a new refresh job. repo may be nil, in which
// case the run result is only logged.
func NewRefreshJob(service *backtest.Service, repo RunStore, log *logger.Logger, windowDays int) *RefreshJob {
	if windowDays <= 0 {
		windowDays = 365
	}
	return &RefreshJob{
		service:    service,
		repo:       repo,
		logger:     log,
		windowDays: windowDays,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "backtest_refresh"
}

// Schedule returns the cron schedule (02:30 daily, after EDGAR's
// overnight indexing)
func (j *RefreshJob) Schedule() string {
	return "0 30 2 * * *"
}

// Run executes the refresh
func (j *RefreshJob) Run(ctx context.Context) error {
	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -j.windowDays)

	result, err := j.service.Run(ctx, from, to, nil)
	if err != nil {
		return fmt.Errorf("refresh backtest: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"trades":   result.Metrics.TradeCount,
		"empty":    result.Metrics.Empty,
		"warnings": len(result.Warnings),
	}).Info("Refresh backtest completed")

	if j.repo == nil {
		return nil
	}

	runID, err := j.repo.SaveRun(ctx, result)
	if err != nil {
		return fmt.Errorf("persist refresh run: %w", err)
	}
	j.logger.WithField("run_id", runID).Info("Refresh run persisted")

	return nil
}
