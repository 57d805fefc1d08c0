package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/nmillrr/sec-clearance-algo/pkg/logger"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// StreamHandler streams run progress over WebSocket.
type StreamHandler struct {
	runner   *Runner
	logger   *logger.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new progress stream handler.
func NewStreamHandler(runner *Runner, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		runner: runner,
		logger: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// StreamRun streams a run's progress events as JSON messages until the
// run finishes or the client disconnects. Past events are replayed on
// connect, so late subscribers see the full history.
// GET /api/ws/runs/{id}
func (h *StreamHandler) StreamRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid run id")
		return
	}

	events, cancel, ok := h.runner.Subscribe(id)
	if !ok {
		respondError(w, http.StatusNotFound, "Run not found")
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.logger.WithField("run_id", id)
	log.Debug("Progress stream connected")

	// Drain client frames so close messages are noticed.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, open := <-events:
			if !open {
				h.writeFinal(conn, id)
				log.Debug("Progress stream finished")
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				log.WithError(err).Debug("Progress stream write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-clientGone:
			log.Debug("Progress stream client disconnected")
			return
		}
	}
}

func (h *StreamHandler) writeFinal(conn *websocket.Conn, id int64) {
	info, ok := h.runner.Info(id)
	if !ok {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	conn.WriteJSON(map[string]interface{}{
		"final":  true,
		"status": info.Status,
		"error":  info.Error,
	})
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
