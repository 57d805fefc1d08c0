package handlers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmillrr/sec-clearance-algo/internal/contracts"
	"github.com/nmillrr/sec-clearance-algo/internal/engine"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

func waitStatus(t *testing.T, r *Runner, id int64, want RunStatus) RunInfo {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("run %d never reached status %s", id, want)
		case <-time.After(5 * time.Millisecond):
		}

		info, ok := r.Info(id)
		require.True(t, ok)
		if info.Status == want {
			return info
		}
	}
}

func TestRunnerTrigger_CompletesAndKeepsResult(t *testing.T) {
	release := make(chan struct{})
	backtest := func(ctx context.Context, from, to time.Time, progress func(engine.ProgressEvent)) (*engine.Result, error) {
		<-release
		progress(engine.ProgressEvent{EntityID: "0001", Ticker: "ACME", Traded: true, Completed: 1, Total: 2})
		progress(engine.ProgressEvent{EntityID: "0002", Ticker: "BETA", Completed: 2, Total: 2})
		return &engine.Result{
			Metrics: contracts.BacktestMetrics{TradeCount: 1, AverageReturnPct: 10, WinRatePct: 100},
		}, nil
	}

	r := NewRunner(backtest, nil, logger.NewNop())

	id := r.Trigger(time.Now().AddDate(-1, 0, 0), time.Now())

	info, ok := r.Info(id)
	require.True(t, ok)
	assert.Equal(t, RunStatusRunning, info.Status)

	events, cancel, ok := r.Subscribe(id)
	require.True(t, ok)
	defer cancel()

	close(release)

	var got []engine.ProgressEvent
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "ACME", got[0].Ticker)
	assert.Equal(t, 2, got[1].Completed)

	info = waitStatus(t, r, id, RunStatusCompleted)
	require.NotNil(t, info.Result)
	assert.Equal(t, 1, info.Result.Metrics.TradeCount)
}

func TestRunnerTrigger_FailureIsReported(t *testing.T) {
	backtest := func(ctx context.Context, from, to time.Time, progress func(engine.ProgressEvent)) (*engine.Result, error) {
		return nil, errors.New("edgar down")
	}

	r := NewRunner(backtest, nil, logger.NewNop())

	id := r.Trigger(time.Now().AddDate(-1, 0, 0), time.Now())

	info := waitStatus(t, r, id, RunStatusFailed)
	assert.Equal(t, "edgar down", info.Error)
	assert.Nil(t, info.Result)
}

func TestRunnerSubscribe_LateSubscriberGetsHistory(t *testing.T) {
	backtest := func(ctx context.Context, from, to time.Time, progress func(engine.ProgressEvent)) (*engine.Result, error) {
		progress(engine.ProgressEvent{Ticker: "ACME", Completed: 1, Total: 1})
		return &engine.Result{Metrics: contracts.BacktestMetrics{Empty: true}}, nil
	}

	r := NewRunner(backtest, nil, logger.NewNop())

	id := r.Trigger(time.Now().AddDate(-1, 0, 0), time.Now())
	waitStatus(t, r, id, RunStatusCompleted)

	// Subscribing after completion replays history and closes immediately.
	events, cancel, ok := r.Subscribe(id)
	require.True(t, ok)
	defer cancel()

	var got []engine.ProgressEvent
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "ACME", got[0].Ticker)
}

func TestRunnerSubscribe_UnknownRun(t *testing.T) {
	r := NewRunner(nil, nil, logger.NewNop())

	_, _, ok := r.Subscribe(42)
	assert.False(t, ok)

	_, ok = r.Info(42)
	assert.False(t, ok)
}
