package response

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Created writes a 201 with the new player's location relative to the collection path
func Created(w http.ResponseWriter, r *http.Request, player Player) {
	location := strings.TrimSuffix(r.URL.Path, "/") + "/" + strconv.FormatInt(player.ID, 10)
	w.Header().Set("Location", location)
	JSON(w, http.StatusCreated, player)
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
