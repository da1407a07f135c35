package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/playerregistry/internal/api/request"
	"github.com/mcoot/playerregistry/internal/api/response"
	"github.com/mcoot/playerregistry/internal/api/sse"
	"github.com/mcoot/playerregistry/internal/model"
	"github.com/mcoot/playerregistry/internal/services/registry"
	"github.com/mcoot/playerregistry/internal/services/stream"
)

// PlayerHandler handles player registry endpoints
type PlayerHandler struct {
	registry *registry.Service
	stream   *stream.Controller
	hub      *sse.Hub
	logger   *slog.Logger
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(registry *registry.Service, stream *stream.Controller, hub *sse.Hub, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{
		registry: registry,
		stream:   stream,
		hub:      hub,
		logger:   logger,
	}
}

// List handles GET /api/v1/players
func (h *PlayerHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.PlayersFromSnapshot(h.registry.List(r.Context())))
}

// Get handles GET /api/v1/players/{id}
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.registry.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Create handles POST /api/v1/players
func (h *PlayerHandler) Create(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameFromQuery(r)
	if !ok {
		var req request.CreatePlayerRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, err)
			return
		}
		username = req.Username
	}

	if err := model.ValidateUsername(username); err != nil {
		WriteError(w, err)
		return
	}

	player := h.registry.Add(r.Context(), username)
	response.Created(w, r, response.PlayerFromModel(player))
}

// Update handles PUT /api/v1/players/{id}
func (h *PlayerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	username, ok := usernameFromQuery(r)
	if !ok {
		var req request.UpdatePlayerRequest
		if err := decodeBody(r, &req); err != nil {
			WriteError(w, err)
			return
		}
		username = req.Username
	}

	// Validation is checked before existence
	if err := model.ValidateUsername(username); err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.registry.Update(r.Context(), id, username)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}

// Delete handles DELETE /api/v1/players/{id}
func (h *PlayerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := playerIDFromPath(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if !h.registry.Remove(r.Context(), id) {
		WriteError(w, model.ErrPlayerNotFound)
		return
	}

	response.NoContent(w)
}

// Stream handles GET /api/v1/players/stream
func (h *PlayerHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sse.ServeStream(w, r, h.stream, h.logger)
}

// Events handles GET /api/v1/players/events
func (h *PlayerHandler) Events(w http.ResponseWriter, r *http.Request) {
	sse.ServeSSE(w, r, h.hub)
}

func playerIDFromPath(r *http.Request) (model.PlayerID, error) {
	return model.ParsePlayerID(mux.Vars(r)["id"])
}

// usernameFromQuery returns the ?username= parameter when present
func usernameFromQuery(r *http.Request) (string, bool) {
	query := r.URL.Query()
	if !query.Has("username") {
		return "", false
	}
	return query.Get("username"), true
}

// decodeBody decodes a JSON body into target. An empty body leaves target unchanged.
func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return NewInvalidRequestError("invalid request body")
	}
	return nil
}
