package order_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-ordering/internal/logger"
	"ms-ordering/internal/rbac"
	"ms-ordering/internal/sse"
	"ms-ordering/internal/utils"
)

// SSEHandler streams board refresh events to staff screens.
type SSEHandler struct {
	Logger       *logger.Logger
	EventEmitter *sse.BoardEventEmitter
	Heartbeat    time.Duration
}

func NewSSEHandler(log *logger.Logger, emitter *sse.BoardEventEmitter) *SSEHandler {
	return &SSEHandler{Logger: log, EventEmitter: emitter, Heartbeat: 25 * time.Second}
}

// HandleBranchEvents streams every board event of one branch until the
// client disconnects.
func (h *SSEHandler) HandleBranchEvents(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "branchID")
	p := rbac.FromContext(r.Context())
	if err := rbac.Require(p, rbac.PermOrdersView); err != nil {
		utils.WriteError(w, "Access denied", err)
		return
	}
	if err := rbac.RequireBranch(p, branchID); err != nil {
		h.Logger.LogSecurity("SSE_DENIED", fmt.Sprintf("%s -> branch %s", p.UserID, branchID))
		utils.WriteError(w, "Access denied", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	h.setupSSEHeaders(w)

	ctx := r.Context()
	events := h.EventEmitter.Subscribe(ctx, branchID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"branch_id\":%q}\n\n", branchID)
	flusher.Flush()
	h.Logger.Info("SSE", fmt.Sprintf("%s connected to branch %s (%d clients)", p.UserID, branchID, h.EventEmitter.ClientCount(branchID)))

	ticker := time.NewTicker(h.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("marshal board event: %v", err))
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Kind, data)
			flusher.Flush()

		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("%s disconnected from branch %s", p.UserID, branchID))
			return
		}
	}
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
