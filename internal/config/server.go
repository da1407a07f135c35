package config

import (
	"log/slog"
	"time"
)

// Server is the player registry server's environment configuration
type Server struct {
	Host            string        `env:"PLAYERS_HOST"`
	Port            int           `env:"PLAYERS_PORT"             envDefault:"8080"`
	ReadTimeout     time.Duration `env:"PLAYERS_READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout    time.Duration `env:"PLAYERS_WRITE_TIMEOUT"    envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"PLAYERS_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	LogLevel        slog.Level    `env:"PLAYERS_LOG_LEVEL"        envDefault:"INFO"`

	// StreamInterval is the time between synthesized additions in a stream session
	StreamInterval time.Duration `env:"PLAYERS_STREAM_INTERVAL" envDefault:"5s"`
	// SynthSeed makes generated usernames reproducible; unset uses crypto randomness
	SynthSeed *uint64 `env:"PLAYERS_SYNTH_SEED"`
	// MessagingValidate applies username validation to players.add
	MessagingValidate bool `env:"PLAYERS_MESSAGING_VALIDATE" envDefault:"false"`

	// FeedRedisURL enables the Redis change feed when set
	FeedRedisURL     string `env:"PLAYERS_FEED_REDIS_URL"`
	FeedRedisChannel string `env:"PLAYERS_FEED_REDIS_CHANNEL" envDefault:"players:events"`
}

// LoadServer reads the server configuration from the environment
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// FeedEnabled reports whether a Redis change feed is configured
func (s Server) FeedEnabled() bool {
	return s.FeedRedisURL != ""
}
