package backtest

import (
	"context"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/internal/engine"
	"github.com/nmillrr/sec-clearance-algo/internal/sentiment"
	"github.com/nmillrr/sec-clearance-algo/pkg/config"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

// Default span searched before the clearance window for the
// investigation filings that opened the cases.
const defaultOpenLookbackYears = 2

// FilingSource finds disclosure events in a filing window. Implemented
// by the EDGAR full-text search client.
type FilingSource interface {
	SearchClearances(ctx context.Context, from, to time.Time) ([]contracts.DisclosureEvent, []contracts.Warning, error)
	SearchInvestigations(ctx context.Context, from, to time.Time, cik string) ([]contracts.DisclosureEvent, []contracts.Warning, error)
}

// Service composes filing discovery with the backtest engine. It is the
// shared entry point for the CLI, the API and the scheduler, and is
// safe for concurrent runs.
type Service struct {
	filings FilingSource
	prices  engine.PriceSource
	news    sentiment.Source
	logger  *logger.Logger
	cfg     config.BacktestConfig
}

// NewService creates a backtest service.
func NewService(filings FilingSource, prices engine.PriceSource, news sentiment.Source, log *logger.Logger, cfg config.BacktestConfig) *Service {
	return &Service{
		filings: filings,
		prices:  prices,
		news:    news,
		logger:  log,
		cfg:     cfg,
	}
}

// Run searches filings over [from, to], pairs and simulates them, and
// returns the run result. Progress may be nil.
func (s *Service) Run(ctx context.Context, from, to time.Time, progress func(engine.ProgressEvent)) (*engine.Result, error) {
	s.logger.WithFields(map[string]interface{}{
		"from": from.Format("2006-01-02"),
		"to":   to.Format("2006-01-02"),
	}).Info("Searching clearance filings")

	clears, clearWarnings, err := s.filings.SearchClearances(ctx, from, to)
	if err != nil {
		return nil, err
	}

	openFrom := s.cfg.MatchLookbackStart
	if openFrom.IsZero() {
		openFrom = from.AddDate(-defaultOpenLookbackYears, 0, 0)
	}
	opens, openWarnings, err := s.filings.SearchInvestigations(ctx, openFrom, to, "")
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"clearances":     len(clears),
		"investigations": len(opens),
	}).Info("Filing search completed")

	events := make([]contracts.DisclosureEvent, 0, len(opens)+len(clears))
	events = append(events, opens...)
	events = append(events, clears...)

	// A fresh engine per run keeps concurrent runs independent.
	eng := engine.New(s.prices, s.news, s.logger, s.cfg)
	eng.Progress = progress

	result, err := eng.Run(ctx, events)
	if result != nil {
		// Filing-level warnings ride along with the run's own.
		merged := make([]contracts.Warning, 0, len(clearWarnings)+len(openWarnings)+len(result.Warnings))
		merged = append(merged, clearWarnings...)
		merged = append(merged, openWarnings...)
		merged = append(merged, result.Warnings...)
		result.Warnings = merged
	}
	return result, err
}
