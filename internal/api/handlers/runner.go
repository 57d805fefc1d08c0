package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/nmillrr/sec-clearance-algo/internal/engine"
	"github.com/nmillrr/sec-clearance-algo/internal/store"
	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

// BacktestFunc executes one backtest over a filing window, reporting
// per-pair progress through the callback.
type BacktestFunc func(ctx context.Context, from, to time.Time, progress func(engine.ProgressEvent)) (*engine.Result, error)

// RunStore persists finished runs. Implemented by store.Repository.
type RunStore interface {
	SaveRun(ctx context.Context, result *engine.Result) (int64, error)
	ListRuns(ctx context.Context, limit int) ([]store.RunSummary, error)
	GetRun(ctx context.Context, runID int64) (*engine.Result, error)
}

// RunStatus is the lifecycle state of a triggered run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunInfo is the externally visible state of a run.
type RunInfo struct {
	ID        int64          `json:"id"`
	Status    RunStatus      `json:"status"`
	From      time.Time      `json:"from"`
	To        time.Time      `json:"to"`
	StartedAt time.Time      `json:"startedAt"`
	Error     string         `json:"error,omitempty"`
	StoredID  *int64         `json:"storedId,omitempty"`
	Result    *engine.Result `json:"result,omitempty"`
}

type runState struct {
	info        RunInfo
	history     []engine.ProgressEvent
	subscribers map[chan engine.ProgressEvent]struct{}
	done        bool
}

// Runner starts backtests in the background and fans progress events
// out to subscribers until each run finishes.
type Runner struct {
	backtest BacktestFunc
	repo     RunStore
	logger   *logger.Logger

	mu   sync.Mutex
	seq  int64
	runs map[int64]*runState
}

// NewRunner creates a runner. repo may be nil, in which case finished
// runs are kept in memory only.
func NewRunner(backtest BacktestFunc, repo RunStore, log *logger.Logger) *Runner {
	return &Runner{
		backtest: backtest,
		repo:     repo,
		logger:   log,
		runs:     make(map[int64]*runState),
	}
}

// Trigger starts a new run over [from, to] and returns its id immediately.
func (r *Runner) Trigger(from, to time.Time) int64 {
	r.mu.Lock()
	r.seq++
	id := r.seq
	r.runs[id] = &runState{
		info: RunInfo{
			ID:        id,
			Status:    RunStatusRunning,
			From:      from,
			To:        to,
			StartedAt: time.Now(),
		},
		subscribers: make(map[chan engine.ProgressEvent]struct{}),
	}
	r.mu.Unlock()

	go r.execute(id, from, to)

	return id
}

func (r *Runner) execute(id int64, from, to time.Time) {
	log := r.logger.WithField("run_id", id)
	log.Info("Backtest run started")

	result, err := r.backtest(context.Background(), from, to, func(ev engine.ProgressEvent) {
		r.publish(id, ev)
	})

	var storedID *int64
	if err == nil && r.repo != nil {
		dbID, saveErr := r.repo.SaveRun(context.Background(), result)
		if saveErr != nil {
			log.WithError(saveErr).Error("Failed to persist run")
		} else {
			storedID = &dbID
		}
	}

	r.mu.Lock()
	state := r.runs[id]
	state.done = true
	state.info.Result = result
	state.info.StoredID = storedID
	if err != nil {
		state.info.Status = RunStatusFailed
		state.info.Error = err.Error()
	} else {
		state.info.Status = RunStatusCompleted
	}
	for ch := range state.subscribers {
		close(ch)
	}
	state.subscribers = make(map[chan engine.ProgressEvent]struct{})
	r.mu.Unlock()

	if err != nil {
		log.WithError(err).Error("Backtest run failed")
		return
	}
	log.WithFields(map[string]interface{}{
		"trades":   result.Metrics.TradeCount,
		"warnings": len(result.Warnings),
	}).Info("Backtest run completed")
}

func (r *Runner) publish(id int64, ev engine.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.runs[id]
	if !ok {
		return
	}
	state.history = append(state.history, ev)
	for ch := range state.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow consumer; it catches up from the next event.
		}
	}
}

// List returns all triggered runs, newest first.
func (r *Runner) List() []RunInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]RunInfo, 0, len(r.runs))
	for id := r.seq; id >= 1; id-- {
		if state, ok := r.runs[id]; ok {
			info := state.info
			// Full datasets are served per-run, not in listings.
			info.Result = nil
			infos = append(infos, info)
		}
	}
	return infos
}

// Info returns the current state of a run.
func (r *Runner) Info(id int64) (RunInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.runs[id]
	if !ok {
		return RunInfo{}, false
	}
	return state.info, true
}

// Subscribe attaches to a run's progress stream. Past events are
// replayed first; the channel is closed when the run finishes. The
// returned cancel function detaches the subscriber.
func (r *Runner) Subscribe(id int64) (<-chan engine.ProgressEvent, func(), bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.runs[id]
	if !ok {
		return nil, nil, false
	}

	ch := make(chan engine.ProgressEvent, len(state.history)+64)
	for _, ev := range state.history {
		ch <- ev
	}
	if state.done {
		close(ch)
		return ch, func() {}, true
	}

	state.subscribers[ch] = struct{}{}
	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, live := state.subscribers[ch]; live {
			delete(state.subscribers, ch)
			close(ch)
		}
	}
	return ch, cancel, true
}
