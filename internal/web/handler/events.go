package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/store"
	"github.com/mcoot/bouncetimer/internal/web/middleware"
	"github.com/mcoot/bouncetimer/internal/web/sse"
)

// EventsHandler streams store changes to dashboards
type EventsHandler struct {
	store    *store.Store
	hub      *sse.Hub
	renderer *sse.Renderer
	logger   *slog.Logger
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(store *store.Store, hub *sse.Hub, renderer *sse.Renderer, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		store:    store,
		hub:      hub,
		renderer: renderer,
		logger:   logger,
	}
}

// Events handles GET /events. New streams start with the current players.
func (h *EventsHandler) Events(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	initial, err := h.renderer.PlayersUpdated(model.ChangeEvent{
		Action:  model.ActionLoad,
		Players: h.store.List(),
	})
	if err != nil {
		h.logger.Error("sse failed to encode snapshot", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	sse.ServeSSE(w, r, h.hub, session.Username, initial)
}
