package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/playerregistry/internal/api/handler"
	"github.com/mcoot/playerregistry/internal/api/middleware"
	"github.com/mcoot/playerregistry/internal/api/response"
	"github.com/mcoot/playerregistry/internal/api/sse"
	"github.com/mcoot/playerregistry/internal/services/registry"
	"github.com/mcoot/playerregistry/internal/services/stream"
)

// MessagingPath is where the websocket messaging channel is mounted
const MessagingPath = "/rsocket"

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger           *slog.Logger
	Registry         *registry.Service
	StreamController *stream.Controller
	Hub              *sse.Hub
	// Messaging serves the websocket channel; nil leaves it unmounted
	Messaging http.Handler
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	playerHandler := handler.NewPlayerHandler(cfg.Registry, cfg.StreamController, cfg.Hub, cfg.Logger)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Streaming routes are registered before /{id} so they are not parsed as ids
	api.HandleFunc("/players/stream", playerHandler.Stream).Methods(http.MethodGet)
	api.HandleFunc("/players/events", playerHandler.Events).Methods(http.MethodGet)

	api.HandleFunc("/players", playerHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/players", playerHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/players/{id}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}", playerHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/players/{id}", playerHandler.Delete).Methods(http.MethodDelete)

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	if cfg.Messaging != nil {
		ws := r.PathPrefix(MessagingPath).Subrouter()
		ws.Use(recoveryMiddleware)
		ws.Use(loggingMiddleware)
		ws.Handle("", cfg.Messaging).Methods(http.MethodGet)
	}

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
