package events

import (
	"context"
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// How often the stream nudges idle connections, and how long a single
// write may stall before the connection is abandoned.
const (
	streamHeartbeat = 30 * time.Second
	streamDeadline  = 60 * time.Second
)

// Handler serves the event stream at GET /api/v1/events. Each connection
// gets its own Client registered with the Manager; the handler's job is
// purely transport: turn Events into wire frames and keep the pipe warm.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates an SSE Handler backed by the given Manager.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		logger:  logger,
	}
}

// ClientCount reports the number of live stream subscribers.
func (h *Handler) ClientCount() int {
	return h.manager.ClientCount()
}

// ServeHTTP upgrades the request to an SSE stream and pumps events until
// either side goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if r.Context().Err() != nil {
		// Client bailed before we got here.
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		h.logger.Error("failed to flush headers", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, err := h.manager.Connect()
	if err != nil {
		h.logger.Error("failed to register SSE client", slog.String("error", err.Error()))
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer h.manager.Disconnect(client.ID)

	log := h.logger.With(slog.String("client_id", client.ID))

	// First frame tells the client its ID; if even that fails there is
	// no stream to keep.
	if err := h.writeFrame(w, rc, "connected", map[string]string{
		"client_id": client.ID,
		"message":   "SSE connection established",
	}); err != nil {
		log.Warn("failed to send initial connection message", slog.String("error", err.Error()))
		return
	}

	h.stream(r.Context(), w, rc, client, log)
}

// stream is the per-connection pump: broadcast events, heartbeats, and
// the two ways a connection ends (manager shutdown, client disconnect).
func (h *Handler) stream(ctx context.Context, w http.ResponseWriter, rc *http.ResponseController, client *Client, log *slog.Logger) {
	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case event := <-client.EventChan:
			if err := h.writeFrame(w, rc, string(event.Type), event); err != nil {
				// A failed write means the client hung up; normal churn.
				log.Info("client disconnected during send")
				return
			}

		case <-heartbeat.C:
			beat := NewHeartbeatEvent()
			if err := h.writeFrame(w, rc, string(beat.Type), beat); err != nil {
				log.Info("client disconnected during heartbeat")
				return
			}

		case <-client.Done:
			log.Info("client closed by manager")
			return

		case <-ctx.Done():
			log.Info("client context canceled")
			return
		}
	}
}

// writeFrame emits one "event:"/"data:" pair and flushes it out.
func (h *Handler) writeFrame(w http.ResponseWriter, rc *http.ResponseController, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	// Push the write deadline out after every successful frame so a hung
	// connection eventually errors instead of pinning a goroutine.
	if err := rc.SetWriteDeadline(time.Now().Add(streamDeadline)); err != nil {
		h.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}
	return nil
}
