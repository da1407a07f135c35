package memory

import (
	"sync"

	"github.com/elliotchance/orderedmap/v3"

	"github.com/mcoot/playerregistry/internal/model"
	"github.com/mcoot/playerregistry/internal/storage"
)

// Storage is an in-memory implementation of the player store
type Storage struct {
	mu      sync.RWMutex
	players *orderedmap.OrderedMap[model.PlayerID, model.Player]
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players: orderedmap.NewOrderedMap[model.PlayerID, model.Player](),
	}
}

// Ensure Storage implements the interface
var _ storage.PlayerStore = (*Storage)(nil)

func (s *Storage) ListPlayers() []model.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	players := make([]model.Player, 0, s.players.Len())
	for _, p := range s.players.AllFromFront() {
		players = append(players, p)
	}
	return players
}

func (s *Storage) GetPlayer(id model.PlayerID) (model.Player, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players.Get(id)
}

func (s *Storage) InsertPlayer(player model.Player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.players.Has(player.ID) {
		return false
	}
	s.players.Set(player.ID, player)
	return true
}

func (s *Storage) ReplacePlayer(player model.Player) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.players.Has(player.ID) {
		return false
	}
	// Set on an existing key keeps the element's position
	s.players.Set(player.ID, player)
	return true
}

func (s *Storage) DeletePlayer(id model.PlayerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.players.Delete(id)
}

func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players.Len()
}
