package redis

import "time"

// Config holds Redis connection and publishing settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Channel is the pub/sub channel change events are published to
	Channel string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// BufferSize bounds the number of events waiting to be published.
	// Events beyond it are dropped.
	BufferSize int

	// PublishTimeout bounds each round trip to Redis
	PublishTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the feed publisher
func DefaultConfig() Config {
	return Config{
		URL:            "redis://localhost:6379",
		Channel:        "players:events",
		PoolSize:       10,
		MinIdleConns:   2,
		BufferSize:     256,
		PublishTimeout: 2 * time.Second,
	}
}
