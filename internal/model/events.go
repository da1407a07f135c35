package model

import "time"

// EventType identifies the type of registry change
type EventType string

const (
	EventPlayerCreated EventType = "player_created"
	EventPlayerUpdated EventType = "player_updated"
	EventPlayerDeleted EventType = "player_deleted"
)

// ChangeEvent describes one successful registry mutation
type ChangeEvent struct {
	Type      EventType `json:"type"`
	Player    Player    `json:"player"`
	Timestamp time.Time `json:"timestamp"`
}
