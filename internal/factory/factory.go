package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/playerregistry/internal/api/sse"
	"github.com/mcoot/playerregistry/internal/config"
	"github.com/mcoot/playerregistry/internal/dependencies/clock"
	"github.com/mcoot/playerregistry/internal/dependencies/idgen"
	"github.com/mcoot/playerregistry/internal/dependencies/random"
	"github.com/mcoot/playerregistry/internal/feed"
	feedredis "github.com/mcoot/playerregistry/internal/feed/redis"
	"github.com/mcoot/playerregistry/internal/messaging"
	"github.com/mcoot/playerregistry/internal/services/registry"
	"github.com/mcoot/playerregistry/internal/services/stream"
	"github.com/mcoot/playerregistry/internal/services/synth"
	"github.com/mcoot/playerregistry/internal/storage"
	"github.com/mcoot/playerregistry/internal/storage/memory"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.PlayerStore

	// External dependencies
	Clock       clock.Clock
	IDs         idgen.Generator
	Synthesizer synth.Synthesizer

	// Services
	Registry         *registry.Service
	StreamController *stream.Controller
	Hub              *sse.Hub
	Messaging        *messaging.Server

	// FeedPublisher is nil unless a Redis feed is configured
	FeedPublisher *feedredis.Publisher

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// Stream holds stream session settings; zero value uses stream.DefaultConfig()
	Stream stream.Config
	// Messaging holds websocket settings; zero value uses messaging.DefaultConfig()
	Messaging messaging.Config
	// SynthSeed makes generated usernames reproducible; nil uses crypto randomness
	SynthSeed *uint64
	// FeedRedis enables the Redis change feed when set
	FeedRedis *feedredis.Config
	// SkipSeed leaves the registry empty instead of adding the sample players
	SkipSeed bool
}

// ConfigFromEnv maps the server's environment configuration onto a factory Config
func ConfigFromEnv(env config.Server, logger *slog.Logger) Config {
	cfg := Config{
		Logger: logger,
		Stream: stream.Config{
			Interval:            env.StreamInterval,
			ValidateSubmissions: env.MessagingValidate,
		},
		SynthSeed: env.SynthSeed,
	}
	if env.FeedEnabled() {
		redisCfg := feedredis.DefaultConfig()
		redisCfg.URL = env.FeedRedisURL
		redisCfg.Channel = env.FeedRedisChannel
		cfg.FeedRedis = &redisCfg
	}
	return cfg
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var rnd random.Random
	if cfg.SynthSeed != nil {
		rnd = random.NewSeeded(*cfg.SynthSeed)
	} else {
		rnd = random.New()
	}

	var publisher *feedredis.Publisher
	if cfg.FeedRedis != nil {
		p, err := feedredis.New(*cfg.FeedRedis, logger)
		if err != nil {
			return nil, fmt.Errorf("create redis feed: %w", err)
		}
		publisher = p
	}

	app := newWithDependencies(memory.New(), idgen.NewSequence(), clock.New(), synth.New(rnd), publisher, cfg, logger)
	if !cfg.SkipSeed {
		app.Registry.Seed(registry.SeedUsernames...)
	}
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.PlayerStore,
	ids idgen.Generator,
	clk clock.Clock,
	synthesizer synth.Synthesizer,
	publisher *feedredis.Publisher,
	cfg Config,
	logger *slog.Logger,
) *App {
	hub := sse.NewHub(logger)

	notifiers := feed.Multi{hub}
	if publisher != nil {
		notifiers = append(notifiers, publisher)
	}

	streamCfg := cfg.Stream
	if streamCfg.Interval == 0 {
		streamCfg.Interval = stream.DefaultConfig().Interval
	}

	reg := registry.New(store, ids, clk, notifiers, logger)
	controller := stream.NewController(reg, synthesizer, clk, streamCfg, logger)
	messagingServer := messaging.NewServer(controller, cfg.Messaging, logger)

	return &App{
		Storage:          store,
		Clock:            clk,
		IDs:              ids,
		Synthesizer:      synthesizer,
		Registry:         reg,
		StreamController: controller,
		Hub:              hub,
		Messaging:        messagingServer,
		FeedPublisher:    publisher,
		logger:           logger,
	}
}

// Start launches background workers
func (a *App) Start() {
	go a.Hub.Run()
}

// Close disconnects streaming clients and releases external connections
func (a *App) Close() error {
	a.StreamController.Close()
	a.Messaging.Close()
	a.Hub.Close()

	var errs []error
	if a.FeedPublisher != nil {
		if err := a.FeedPublisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis feed: %w", err))
		}
	}
	a.logger.Info("application closed", slog.Int("players", a.Registry.Count()))
	return errors.Join(errs...)
}
