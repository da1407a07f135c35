package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/playerregistry/internal/dependencies/clock"
	"github.com/mcoot/playerregistry/internal/dependencies/idgen"
	"github.com/mcoot/playerregistry/internal/feed"
	"github.com/mcoot/playerregistry/internal/model"
	"github.com/mcoot/playerregistry/internal/storage"
)

// SeedUsernames are the sample players a fresh process starts with
var SeedUsernames = []string{"alice", "bob", "charlie"}

// Service owns the authoritative set of players.
// All reads and writes go through mu, so a snapshot never observes a
// partially applied mutation.
type Service struct {
	mu       sync.RWMutex
	storage  storage.PlayerStore
	ids      idgen.Generator
	clock    clock.Clock
	notifier feed.Notifier
	logger   *slog.Logger
}

// New creates a new registry service. A nil notifier discards events.
func New(
	store storage.PlayerStore,
	ids idgen.Generator,
	clk clock.Clock,
	notifier feed.Notifier,
	logger *slog.Logger,
) *Service {
	if notifier == nil {
		notifier = feed.Nop{}
	}
	return &Service{
		storage:  store,
		ids:      ids,
		clock:    clk,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "registry")),
	}
}

// Seed adds the given usernames without publishing change events
func (s *Service) Seed(usernames ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, username := range usernames {
		s.insertLocked(username)
	}
	s.logger.Info("registry seeded", slog.Int("players", s.storage.Len()))
}

// List returns a snapshot of all players in insertion order
func (s *Service) List(ctx context.Context) model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage.ListPlayers()
}

// Get returns the player with the given ID
func (s *Service) Get(ctx context.Context, id model.PlayerID) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.storage.GetPlayer(id)
	if !ok {
		return model.Player{}, model.ErrPlayerNotFound
	}
	return player, nil
}

// Add creates a player with a fresh ID. The username is not validated.
func (s *Service) Add(ctx context.Context, username string) model.Player {
	s.mu.Lock()
	defer s.mu.Unlock()
	player := s.insertLocked(username)
	s.notifyLocked(ctx, model.EventPlayerCreated, player)
	return player
}

// AddAndList adds a player and takes a snapshot under one lock, so the
// snapshot always contains the new player.
func (s *Service) AddAndList(ctx context.Context, username string) (model.Player, model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player := s.insertLocked(username)
	s.notifyLocked(ctx, model.EventPlayerCreated, player)
	return player, s.storage.ListPlayers()
}

// Update replaces the username of an existing player, keeping its position
func (s *Service) Update(ctx context.Context, id model.PlayerID, username string) (model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	player := model.Player{ID: id, Username: username}
	if !s.storage.ReplacePlayer(player) {
		return model.Player{}, model.ErrPlayerNotFound
	}
	s.notifyLocked(ctx, model.EventPlayerUpdated, player)
	return player, nil
}

// Remove deletes a player. Returns whether a player was removed.
func (s *Service) Remove(ctx context.Context, id model.PlayerID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	player, ok := s.storage.GetPlayer(id)
	if !ok {
		return false
	}
	s.storage.DeletePlayer(id)
	s.notifyLocked(ctx, model.EventPlayerDeleted, player)
	return true
}

// Count returns the number of players
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage.Len()
}

func (s *Service) insertLocked(username string) model.Player {
	for {
		player := model.Player{ID: s.ids.Next(), Username: username}
		if s.storage.InsertPlayer(player) {
			return player
		}
		// Only reachable if the store was populated outside this service
		s.logger.Warn("skipping id already present in store", slog.Int64("id", int64(player.ID)))
	}
}

// notifyLocked runs under mu so events are delivered in mutation order
func (s *Service) notifyLocked(ctx context.Context, eventType model.EventType, player model.Player) {
	s.notifier.Notify(ctx, model.ChangeEvent{
		Type:      eventType,
		Player:    player,
		Timestamp: s.clock.Now(),
	})
}
