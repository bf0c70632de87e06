package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/bouncetimer/internal/dependencies/clock"
	"github.com/mcoot/bouncetimer/internal/services/auth"
	"github.com/mcoot/bouncetimer/internal/store"
	"github.com/mcoot/bouncetimer/internal/web/handler"
	"github.com/mcoot/bouncetimer/internal/web/middleware"
	"github.com/mcoot/bouncetimer/internal/web/sse"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Store       *store.Store
	Clock       clock.Clock
	Hub         *sse.Hub
	StaticDir   string // Path to static files directory
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create middleware
	flashMiddleware := middleware.Flash()
	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)

	// Apply global middleware to all routes
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	dashboardHandler := handler.NewDashboardHandler(cfg.Store, cfg.Clock, cfg.Logger)
	eventsHandler := handler.NewEventsHandler(cfg.Store, cfg.Hub, sse.NewRenderer(cfg.Store), cfg.Logger)

	// Static files
	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		r.PathPrefix("/static/").Handler(staticHandler)
	}

	// Login (redirects away when already logged in)
	public := r.NewRoute().Subrouter()
	public.Use(flashMiddleware)
	public.Use(optionalAuthMiddleware)
	public.HandleFunc("/login", authHandler.LoginPage).Methods(http.MethodGet)
	public.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	public.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Any operator may watch
	viewer := r.NewRoute().Subrouter()
	viewer.Use(flashMiddleware)
	viewer.Use(authMiddleware)
	viewer.HandleFunc("/", dashboardHandler.Dashboard).Methods(http.MethodGet)
	viewer.HandleFunc("/fragments/players", dashboardHandler.PlayersFragment).Methods(http.MethodGet)
	viewer.HandleFunc("/events", eventsHandler.Events).Methods(http.MethodGet)

	// Only admins change the store
	manager := r.NewRoute().Subrouter()
	manager.Use(authMiddleware)
	manager.Use(middleware.RequireManager)
	manager.HandleFunc("/players", dashboardHandler.AddPlayer).Methods(http.MethodPost)
	manager.HandleFunc("/players/clear-expired", dashboardHandler.ClearExpired).Methods(http.MethodPost)
	manager.HandleFunc("/players/{id}/delete", dashboardHandler.DeletePlayer).Methods(http.MethodPost)

	return r
}
