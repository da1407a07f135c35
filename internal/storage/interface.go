package storage

import (
	"github.com/mcoot/playerregistry/internal/model"
)

// PlayerStore is an ordered collection of players keyed by ID.
// Iteration order is insertion order; replacing a player keeps its position.
type PlayerStore interface {
	// ListPlayers returns a copy of all players in insertion order
	ListPlayers() []model.Player
	// GetPlayer returns the player with the given ID
	GetPlayer(id model.PlayerID) (model.Player, bool)
	// InsertPlayer appends a player; returns false if the ID is already present
	InsertPlayer(player model.Player) bool
	// ReplacePlayer swaps the player with the same ID in place; returns false if absent
	ReplacePlayer(player model.Player) bool
	// DeletePlayer removes the player with the given ID; returns false if absent
	DeletePlayer(id model.PlayerID) bool
	// Len returns the number of players
	Len() int
}
