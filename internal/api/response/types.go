package response

import (
	"time"

	"github.com/mcoot/playerregistry/internal/model"
)

// Player represents a player in API responses
type Player struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p model.Player) Player {
	return Player{
		ID:       int64(p.ID),
		Username: p.Username,
	}
}

// PlayersFromSnapshot converts a snapshot, keeping its order.
// An empty registry encodes as [] rather than null.
func PlayersFromSnapshot(s model.Snapshot) []Player {
	players := make([]Player, len(s))
	for i, p := range s {
		players[i] = PlayerFromModel(p)
	}
	return players
}

// ChangeEvent represents a registry change in API responses
type ChangeEvent struct {
	Type      string    `json:"type"`
	Player    Player    `json:"player"`
	Timestamp time.Time `json:"timestamp"`
}

// Health is the health check response
type Health struct {
	Status string `json:"status"`
}
