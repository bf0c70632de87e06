package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/bouncetimer/internal/dependencies/clock"
	"github.com/mcoot/bouncetimer/internal/model"
	"github.com/mcoot/bouncetimer/internal/store"
	"github.com/mcoot/bouncetimer/internal/web/middleware"
	"github.com/mcoot/bouncetimer/internal/web/templates/components"
	"github.com/mcoot/bouncetimer/internal/web/templates/layout"
	"github.com/mcoot/bouncetimer/internal/web/templates/pages"
)

// DashboardHandler serves the timer board and the admin actions on it
type DashboardHandler struct {
	store  *store.Store
	clock  clock.Clock
	logger *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(store *store.Store, clock clock.Clock, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// Dashboard renders the full board
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	data := pages.DashboardData{
		PageData: layout.PageData{
			Title:   "Dashboard",
			Session: session,
			Flash:   middleware.GetFlash(r.Context()),
		},
		Players:         h.views(),
		Active:          h.store.CountActive(),
		Expired:         h.store.CountExpired(),
		Total:           h.store.CountTotal(),
		AverageDuration: h.store.AverageDuration(),
		CanManage:       session.Role.CanManage(),
	}
	render(w, r, http.StatusOK, pages.Dashboard(data))
}

// PlayersFragment renders only the player list, for htmx refreshes
func (h *DashboardHandler) PlayersFragment(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	render(w, r, http.StatusOK, components.PlayerList(h.views(), session.Role.CanManage()))
}

// AddPlayer handles the add-player form
func (h *DashboardHandler) AddPlayer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "Invalid form data")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	duration, err := strconv.Atoi(r.FormValue("duration"))
	if err != nil {
		middleware.SetFlash(w, "error", "Duration must be a whole number of minutes")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	player, err := h.store.Create(r.Context(), r.FormValue("name"), duration)
	if err != nil {
		h.flashError(w, "create player", err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	middleware.SetFlash(w, "success", player.Name+" started "+strconv.Itoa(player.Duration)+" minutes")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// DeletePlayer removes a player
func (h *DashboardHandler) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(mux.Vars(r)["id"])
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.flashError(w, "delete player", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// ClearExpired removes every expired player
func (h *DashboardHandler) ClearExpired(w http.ResponseWriter, r *http.Request) {
	if err := h.store.ClearExpired(r.Context()); err != nil {
		h.flashError(w, "clear expired players", err)
	} else {
		middleware.SetFlash(w, "info", "Finished players cleared")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *DashboardHandler) views() []components.PlayerView {
	players := h.store.List()
	model.SortNewestFirst(players)

	now := h.clock.Now()
	views := make([]components.PlayerView, len(players))
	for i, p := range players {
		views[i] = components.NewPlayerView(p, now)
	}
	return views
}

// flashError shows input errors to the operator and hides everything else
func (h *DashboardHandler) flashError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		middleware.SetFlash(w, "error", err.Error())
	default:
		h.logger.Error("dashboard action failed", slog.String("op", op), slog.Any("error", err))
		middleware.SetFlash(w, "error", "Something went wrong, please try again")
	}
}
