package redis

import "fmt"

// Key prefix for all registry feed data
const keyPrefix = "players"

// lastEventKey returns the key holding the most recently published event
func lastEventKey() string {
	return fmt.Sprintf("%s:feed:last", keyPrefix)
}

// eventCountKey returns the key counting published events
func eventCountKey() string {
	return fmt.Sprintf("%s:feed:count", keyPrefix)
}
