package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/careconnect/backend/internal/domain/entities"
	"github.com/careconnect/backend/internal/infrastructure/observability"
	"github.com/careconnect/backend/internal/syncbus"
)

const defaultHeartbeatInterval = 30 * time.Second

// ChangeSource is the listener side of the sync bus
type ChangeSource interface {
	On(name string, handler syncbus.Handler) syncbus.ListenerID
	Off(name string, id syncbus.ListenerID) bool
}

// SSEHandler streams change events to other views as Server-Sent Events
type SSEHandler struct {
	source    ChangeSource
	metrics   *observability.Metrics
	logger    zerolog.Logger
	heartbeat time.Duration

	mu      sync.RWMutex
	clients int
}

// NewSSEHandler creates a new SSE handler
func NewSSEHandler(source ChangeSource, metrics *observability.Metrics, logger zerolog.Logger) *SSEHandler {
	return &SSEHandler{
		source:    source,
		metrics:   metrics,
		logger:    logger,
		heartbeat: defaultHeartbeatInterval,
	}
}

// StreamChanges handles GET /api/stream/changes?types=appointments:changed,...
// Without types every event is forwarded.
func (h *SSEHandler) StreamChanges(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	wanted := make(map[string]bool)
	for _, t := range strings.Split(r.URL.Query().Get("types"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			wanted[t] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := make(chan *entities.ChangeEvent, 50)
	id := h.source.On(syncbus.Wildcard, func(event *entities.ChangeEvent) {
		if len(wanted) > 0 && !wanted[event.Type] {
			return
		}
		select {
		case events <- event:
		default:
			h.logger.Warn().Str("type", event.Type).Msg("stream client is behind, dropping change event")
		}
	})
	defer h.source.Off(syncbus.Wildcard, id)

	h.track(1)
	defer h.track(-1)

	h.sendEvent(w, "connected", map[string]interface{}{
		"timestamp": time.Now(),
	})
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug().Msg("client disconnected from change stream")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-events:
			h.sendEvent(w, event.Type, event)
			flusher.Flush()
			observability.RecordSyncEvent(r.Context(), h.metrics, event.Type)
		}
	}
}

func (h *SSEHandler) track(delta int) {
	h.mu.Lock()
	h.clients += delta
	count := h.clients
	h.mu.Unlock()
	h.logger.Debug().Int("clients", count).Msg("change stream clients")
}

// sendEvent sends an SSE event to the client
func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// GetClientCount returns the number of connected clients for debugging
func (h *SSEHandler) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients
}

// Stats handles GET /api/stream/stats
func (h *SSEHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]int{
		"connected_clients": h.GetClientCount(),
	})
}
