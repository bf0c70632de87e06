package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mcoot/bouncetimer/internal/api/handler"
	"github.com/mcoot/bouncetimer/internal/api/middleware"
	"github.com/mcoot/bouncetimer/internal/api/response"
	"github.com/mcoot/bouncetimer/internal/services/auth"
	"github.com/mcoot/bouncetimer/internal/store"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Store       *store.Store
	// StorageName is reported by the health check
	StorageName string
	// AllowedOrigins for cross-origin dashboards; empty allows any origin
	AllowedOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService)
	playerHandler := handler.NewPlayerHandler(cfg.Store)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.Logging(cfg.Logger))

	// Public routes
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.HandleFunc("/health", healthHandler(cfg.StorageName)).Methods(http.MethodGet)

	// Any operator may watch
	viewer := api.NewRoute().Subrouter()
	viewer.Use(authMiddleware)
	viewer.HandleFunc("/auth/me", authHandler.Me).Methods(http.MethodGet)
	viewer.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)
	viewer.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	viewer.HandleFunc("/players/{id}", playerHandler.Get).Methods(http.MethodGet)
	viewer.HandleFunc("/stats", playerHandler.Stats).Methods(http.MethodGet)

	// Only admins change the store
	manager := api.NewRoute().Subrouter()
	manager.Use(authMiddleware)
	manager.Use(middleware.RequireManager)
	manager.HandleFunc("/players", playerHandler.Create).Methods(http.MethodPost)
	manager.HandleFunc("/players/clear-expired", playerHandler.ClearExpired).Methods(http.MethodPost)
	manager.HandleFunc("/players/{id}/status", playerHandler.UpdateStatus).Methods(http.MethodPatch)
	manager.HandleFunc("/players/{id}", playerHandler.Delete).Methods(http.MethodDelete)

	return corsHandler(cfg.AllowedOrigins).Handler(r)
}

func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
}

func healthHandler(storageName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{Status: "ok", Storage: storageName})
	}
}
