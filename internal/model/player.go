package model

import (
	"strconv"
	"strings"
)

// PlayerID uniquely identifies a player. IDs are positive and never reused.
type PlayerID int64

// String renders the ID in base 10
func (id PlayerID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParsePlayerID parses a base 10 player ID
func ParsePlayerID(s string) (PlayerID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrInvalidPlayerID
	}
	return PlayerID(n), nil
}

// Player is an immutable registry entry.
// Two players with the same ID are the same logical entity.
type Player struct {
	ID       PlayerID `json:"id"`
	Username string   `json:"username"`
}

// Snapshot is a copy of the registry contents at one instant, in insertion order
type Snapshot []Player

// Username bounds enforced by the accepting boundary
const (
	UsernameMinLength = 3
	UsernameMaxLength = 50
)

// ValidateUsername applies the boundary rule for usernames.
// The registry itself accepts any string.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrInvalidUsername
	}
	n := len([]rune(username))
	if n < UsernameMinLength || n > UsernameMaxLength {
		return ErrInvalidUsername
	}
	return nil
}
