package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

// BacktestHandler handles backtest run endpoints.
type BacktestHandler struct {
	runner *Runner
	repo   RunStore
	logger *logger.Logger
}

// NewBacktestHandler creates a new backtest handler. repo may be nil
// when persistence is disabled.
func NewBacktestHandler(runner *Runner, repo RunStore, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		runner: runner,
		repo:   repo,
		logger: log,
	}
}

type triggerRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Trigger starts a new backtest run.
// POST /api/backtests {"from": "2020-01-01", "to": "2021-12-31"}
func (h *BacktestHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", req.To)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		respondError(w, http.StatusBadRequest, "'to' must not precede 'from'")
		return
	}

	id := h.runner.Trigger(from, to)

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"runId":  id,
			"status": RunStatusRunning,
		},
	})
}

// List returns all runs triggered on this server, newest first.
// GET /api/backtests
func (h *BacktestHandler) List(w http.ResponseWriter, r *http.Request) {
	runs := h.runner.List()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count": len(runs),
			"items": runs,
		},
	})
}

// GetStatus returns the live state of a triggered run, including its
// full result once completed.
// GET /api/backtests/{id}
func (h *BacktestHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	info, ok := h.runner.Info(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    info,
	})
}

// ListStored returns the most recent persisted runs.
// GET /api/runs?limit=20
func (h *BacktestHandler) ListStored(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "Persistence is disabled")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			respondError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.repo.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list stored runs")
		respondError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"count": len(runs),
			"items": runs,
		},
	})
}

// GetStored returns one persisted run with its full dataset.
// GET /api/runs/{id}
func (h *BacktestHandler) GetStored(w http.ResponseWriter, r *http.Request) {
	if h.repo == nil {
		respondError(w, http.StatusServiceUnavailable, "Persistence is disabled")
		return
	}

	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	result, err := h.repo.GetRun(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load stored run")
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
