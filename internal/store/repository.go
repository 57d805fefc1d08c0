package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/internal/engine"
)

// Repository persists backtest runs and their datasets. Persistence is
// optional; the engine never depends on it.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new run repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RunSummary is one stored run's header row.
type RunSummary struct {
	ID        int64                     `json:"id"`
	StartedAt time.Time                 `json:"started_at"`
	Duration  time.Duration             `json:"duration"`
	Metrics   contracts.BacktestMetrics `json:"metrics"`
}

// SaveRun stores a completed run with its pairs, outcomes and warnings in
// one transaction and returns the run id.
func (r *Repository) SaveRun(ctx context.Context, result *engine.Result) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO backtest.runs (started_at, duration_ms, trade_count, average_return_pct, win_rate_pct, empty)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`,
		result.StartedAt,
		result.Duration.Milliseconds(),
		result.Metrics.TradeCount,
		result.Metrics.AverageReturnPct,
		result.Metrics.WinRatePct,
		result.Metrics.Empty,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	if err := r.savePairs(ctx, tx, runID, result.Pairs); err != nil {
		return 0, err
	}
	if err := r.saveOutcomes(ctx, tx, runID, result.Outcomes); err != nil {
		return 0, err
	}
	if err := r.saveWarnings(ctx, tx, runID, result.Warnings); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return runID, nil
}

func (r *Repository) savePairs(ctx context.Context, tx pgx.Tx, runID int64, pairs []contracts.EventPair) error {
	for _, pair := range pairs {
		var avg *float64
		var articles *int
		if pair.Sentiment != nil {
			a := pair.Sentiment.AverageScore
			n := len(pair.Sentiment.Articles)
			avg, articles = &a, &n
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO backtest.pairs (run_id, entity_id, ticker, t1, t2, sentiment_avg, article_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, runID, pair.EntityID, pair.Ticker, pair.T1, pair.T2, avg, articles)
		if err != nil {
			return fmt.Errorf("insert pair %s: %w", pair.EntityID, err)
		}
	}
	return nil
}

func (r *Repository) saveOutcomes(ctx context.Context, tx pgx.Tx, runID int64, outcomes []contracts.TradeOutcome) error {
	for _, o := range outcomes {
		_, err := tx.Exec(ctx, `
			INSERT INTO backtest.outcomes (run_id, entity_id, ticker, entry_date, exit_date, entry_price, exit_price, return_pct)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, runID, o.EntityID, o.Ticker, o.EntryDate, o.ExitDate, o.EntryPrice, o.ExitPrice, o.ReturnPct)
		if err != nil {
			return fmt.Errorf("insert outcome %s: %w", o.Ticker, err)
		}
	}
	return nil
}

func (r *Repository) saveWarnings(ctx context.Context, tx pgx.Tx, runID int64, warnings []contracts.Warning) error {
	for _, w := range warnings {
		_, err := tx.Exec(ctx, `
			INSERT INTO backtest.warnings (run_id, kind, entity_id, ticker, detail, at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, runID, string(w.Kind), w.EntityID, w.Ticker, w.Detail, w.At)
		if err != nil {
			return fmt.Errorf("insert warning: %w", err)
		}
	}
	return nil
}

// ListRuns returns the most recent run summaries.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, started_at, duration_ms, trade_count, average_return_pct, win_rate_pct, empty
		FROM backtest.runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var durationMs int64
		if err := rows.Scan(&run.ID, &run.StartedAt, &durationMs,
			&run.Metrics.TradeCount, &run.Metrics.AverageReturnPct,
			&run.Metrics.WinRatePct, &run.Metrics.Empty); err != nil {
			return nil, err
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun loads one stored run with its full dataset.
func (r *Repository) GetRun(ctx context.Context, runID int64) (*engine.Result, error) {
	result := &engine.Result{}

	var durationMs int64
	err := r.pool.QueryRow(ctx, `
		SELECT started_at, duration_ms, trade_count, average_return_pct, win_rate_pct, empty
		FROM backtest.runs
		WHERE id = $1
	`, runID).Scan(&result.StartedAt, &durationMs,
		&result.Metrics.TradeCount, &result.Metrics.AverageReturnPct,
		&result.Metrics.WinRatePct, &result.Metrics.Empty)
	if err != nil {
		return nil, fmt.Errorf("load run %d: %w", runID, err)
	}
	result.Duration = time.Duration(durationMs) * time.Millisecond

	rows, err := r.pool.Query(ctx, `
		SELECT entity_id, ticker, t1, t2
		FROM backtest.pairs
		WHERE run_id = $1
		ORDER BY t2
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var pair contracts.EventPair
		if err := rows.Scan(&pair.EntityID, &pair.Ticker, &pair.T1, &pair.T2); err != nil {
			return nil, err
		}
		result.Pairs = append(result.Pairs, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	outRows, err := r.pool.Query(ctx, `
		SELECT entity_id, ticker, entry_date, exit_date, entry_price, exit_price, return_pct
		FROM backtest.outcomes
		WHERE run_id = $1
		ORDER BY entry_date
	`, runID)
	if err != nil {
		return nil, err
	}
	defer outRows.Close()

	for outRows.Next() {
		var o contracts.TradeOutcome
		if err := outRows.Scan(&o.EntityID, &o.Ticker, &o.EntryDate, &o.ExitDate,
			&o.EntryPrice, &o.ExitPrice, &o.ReturnPct); err != nil {
			return nil, err
		}
		result.Outcomes = append(result.Outcomes, o)
	}

	return result, outRows.Err()
}
