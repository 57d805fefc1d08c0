package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/aggregate"
	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/internal/match"
	"github.com/nmillrr/sec-clearance-algo/internal/sentiment"
	"github.com/nmillrr/sec-clearance-algo/internal/simulate"
	"github.com/nmillrr/sec-clearance-algo/pkg/config"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

// ErrNoEvents is returned when the input contains nothing to backtest.
// This is the only fatal condition; every per-item problem degrades to a
// warning instead.
var ErrNoEvents = errors.New("no matchable clearance events")

// pricePadDays widens the fetched price window on both sides of the trade
// so entry and exit dates can roll forward over non-trading days.
const pricePadDays = 30

// PriceSource is the price collaborator contract. An unresolved ticker
// yields an empty series, not an error.
type PriceSource interface {
	History(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PriceBar, error)
}

// Engine wires matcher, enricher, simulator and aggregator into one run.
// Matching is a synchronous pass; enrichment and simulation run per pair on
// a bounded worker pool.
type Engine struct {
	matcher   *match.Matcher
	enricher  *sentiment.Enricher
	simulator *simulate.Simulator
	prices    PriceSource
	logger    *logger.Logger
	cfg       config.BacktestConfig

	// Progress, when set, receives one event per completed pair. Used by
	// the API layer to stream run progress; may be nil.
	Progress func(ProgressEvent)
}

// ProgressEvent reports one completed pair during a run.
type ProgressEvent struct {
	EntityID  string `json:"entity_id"`
	Ticker    string `json:"ticker"`
	Traded    bool   `json:"traded"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Result is the complete output of a run: the reduced metrics, the full
// enriched dataset, and every per-item warning. A run always produces a
// Result, possibly with Metrics.Empty set.
type Result struct {
	Metrics  contracts.BacktestMetrics `json:"metrics"`
	Pairs    []contracts.EventPair     `json:"pairs"`
	Outcomes []contracts.TradeOutcome  `json:"outcomes"`
	Warnings []contracts.Warning       `json:"warnings"`

	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// New creates a new Engine.
func New(prices PriceSource, source sentiment.Source, log *logger.Logger, cfg config.BacktestConfig) *Engine {
	return &Engine{
		matcher:   match.NewMatcher(log, cfg.MatchLookbackStart),
		enricher:  sentiment.NewEnricher(source, log, cfg.SentimentWindowBeforeDays, cfg.SentimentWindowAfterDays),
		simulator: simulate.NewSimulator(log, cfg.HoldingDays),
		prices:    prices,
		logger:    log,
		cfg:       cfg,
	}
}

// pairResult carries one worker's output back to the gatherer.
type pairResult struct {
	pair     contracts.EventPair
	outcome  *contracts.TradeOutcome
	warnings []contracts.Warning
}

// Run executes the full pipeline over already-fetched disclosure events.
// Cancellation propagates to all in-flight workers; whatever completed
// before the cancellation is still aggregated into the returned Result,
// alongside the context error.
func (e *Engine) Run(ctx context.Context, events []contracts.DisclosureEvent) (*Result, error) {
	startedAt := time.Now()

	pairs, warnings := e.matcher.Match(events)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: %d events in, %d warnings", ErrNoEvents, len(events), len(warnings))
	}

	e.logger.WithFields(map[string]interface{}{
		"pairs":   len(pairs),
		"workers": e.cfg.ConcurrencyLimit,
	}).Info("Starting backtest run")

	result := &Result{
		StartedAt: startedAt,
		Warnings:  warnings,
	}

	pairCh := make(chan contracts.EventPair, len(pairs))
	resultCh := make(chan pairResult, len(pairs))

	workers := e.cfg.ConcurrencyLimit
	if workers > len(pairs) {
		workers = len(pairs)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx, pairCh, resultCh)
		}()
	}

	for _, pair := range pairs {
		pairCh <- pair
	}
	close(pairCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Gather in completion order; the reduction is order-independent.
	completed := 0
	for res := range resultCh {
		completed++
		result.Pairs = append(result.Pairs, res.pair)
		result.Warnings = append(result.Warnings, res.warnings...)
		if res.outcome != nil {
			result.Outcomes = append(result.Outcomes, *res.outcome)
		}

		if e.Progress != nil {
			e.Progress(ProgressEvent{
				EntityID:  res.pair.EntityID,
				Ticker:    res.pair.Ticker,
				Traded:    res.outcome != nil,
				Completed: completed,
				Total:     len(pairs),
			})
		}
	}

	result.Metrics = aggregate.Aggregate(result.Outcomes)
	result.Duration = time.Since(startedAt)

	e.logger.WithFields(map[string]interface{}{
		"pairs":    len(result.Pairs),
		"trades":   result.Metrics.TradeCount,
		"warnings": len(result.Warnings),
		"duration": result.Duration,
	}).Info("Backtest run completed")

	if err := ctx.Err(); err != nil {
		// Partial results stay retrievable after cancellation.
		return result, err
	}

	return result, nil
}

// worker enriches and simulates pairs until the channel drains or the run
// is cancelled. Each worker owns the pairs it processes; nothing is shared.
func (e *Engine) worker(ctx context.Context, pairCh <-chan contracts.EventPair, resultCh chan<- pairResult) {
	for pair := range pairCh {
		select {
		case <-ctx.Done():
			return
		default:
		}

		resultCh <- e.process(ctx, pair)
	}
}

// process runs one pair through enrichment and simulation.
func (e *Engine) process(ctx context.Context, pair contracts.EventPair) pairResult {
	res := pairResult{}

	enrichCtx, cancel := context.WithTimeout(ctx, e.cfg.PerCallTimeout)
	enriched, warn := e.enricher.Enrich(enrichCtx, pair)
	cancel()

	res.pair = enriched
	if warn != nil {
		res.warnings = append(res.warnings, *warn)
	}

	if !enriched.HasTicker() {
		res.warnings = append(res.warnings, contracts.Warning{
			Kind:     contracts.WarnNoTradableWindow,
			EntityID: enriched.EntityID,
			Ticker:   enriched.Ticker,
			Detail:   "ticker unresolved",
			At:       time.Now(),
		})
		return res
	}

	from := enriched.T2.AddDate(0, 0, -pricePadDays)
	to := enriched.T2.AddDate(0, 0, e.cfg.HoldingDays+pricePadDays)

	priceCtx, cancel := context.WithTimeout(ctx, e.cfg.PerCallTimeout)
	bars, err := e.prices.History(priceCtx, enriched.Ticker, from, to)
	cancel()

	if err != nil {
		res.warnings = append(res.warnings, contracts.Warning{
			Kind:     contracts.WarnCollaboratorUnavailable,
			EntityID: enriched.EntityID,
			Ticker:   enriched.Ticker,
			Detail:   fmt.Sprintf("price source: %v", err),
			At:       time.Now(),
		})
		return res
	}

	outcome, reason := e.simulator.Simulate(enriched, bars)
	if outcome == nil {
		res.warnings = append(res.warnings, contracts.Warning{
			Kind:     contracts.WarnNoTradableWindow,
			EntityID: enriched.EntityID,
			Ticker:   enriched.Ticker,
			Detail:   reason,
			At:       time.Now(),
		})
		return res
	}

	res.outcome = outcome
	return res
}
