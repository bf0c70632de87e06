package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/bouncetimer/internal/api/request"
	"github.com/mcoot/bouncetimer/internal/api/response"
	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/store"
)

// PlayerHandler exposes the player store
type PlayerHandler struct {
	store *store.Store
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(store *store.Store) *PlayerHandler {
	return &PlayerHandler{
		store: store,
	}
}

// List handles GET /api/v1/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	players := h.store.List()
	model.SortNewestFirst(players)
	response.JSON(w, http.StatusOK, response.PlayersFromModel(players))
}

// Create handles POST /api/v1/players
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	player, err := h.store.Create(r.Context(), req.Name, req.Duration)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.PlayerFromModel(player))
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])

	player, ok := h.store.Get(id)
	if !ok {
		WriteError(w, model.ErrPlayerNotFound)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// UpdateStatus handles PATCH /api/v1/players/{id}/status.
// A player only becomes expired once its time has run out.
func (h *PlayerHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])

	var req request.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	status := model.PlayerStatus(req.Status)
	var err error
	if status == model.StatusExpired {
		err = h.store.ExpireIfDue(r.Context(), id)
	} else {
		// active can only be a no-op or a rejected reactivation; unknown values are rejected
		err = h.store.UpdateStatus(r.Context(), id, status)
	}
	if err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Delete handles DELETE /api/v1/players/{id}
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])

	if err := h.store.Delete(r.Context(), id); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// ClearExpired handles POST /api/v1/players/clear-expired
func (h *PlayerHandler) ClearExpired(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearExpired(r.Context()); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Stats handles GET /api/v1/stats
func (h *PlayerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Stats{
		Active:          h.store.CountActive(),
		Expired:         h.store.CountExpired(),
		Total:           h.store.CountTotal(),
		AverageDuration: h.store.AverageDuration(),
	})
}
