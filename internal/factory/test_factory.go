package factory

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/playerregistry/internal/dependencies/idgen"
	"github.com/mcoot/playerregistry/internal/dependencies/mocks"
	feedredis "github.com/mcoot/playerregistry/internal/feed/redis"
	"github.com/mcoot/playerregistry/internal/services/registry"
	"github.com/mcoot/playerregistry/internal/storage/memory"
	"github.com/mcoot/playerregistry/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockSynth *mocks.MockSynthesizer
}

// TestOption customizes a TestApp before it is wired
type TestOption func(*testOptions)

type testOptions struct {
	cfg         Config
	redisClient *redis.Client
}

// WithConfig overrides the factory configuration
func WithConfig(cfg Config) TestOption {
	return func(o *testOptions) {
		o.cfg = cfg
	}
}

// WithRedisFeed publishes change events through the given client
func WithRedisFeed(client *redis.Client) TestOption {
	return func(o *testOptions) {
		o.redisClient = client
	}
}

// NewTestApp creates a seeded, started App with a mock clock and synthesizer
func NewTestApp(opts ...TestOption) *TestApp {
	var o testOptions
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.cfg.Logger
	if logger == nil {
		logger = testutil.NopLogger()
	}

	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockSynth := mocks.NewMockSynthesizer()

	var publisher *feedredis.Publisher
	if o.redisClient != nil {
		publisher = feedredis.NewWithClient(o.redisClient, feedredis.DefaultConfig(), logger)
	}

	app := newWithDependencies(memory.New(), idgen.NewSequence(), mockClock, mockSynth, publisher, o.cfg, logger)
	if !o.cfg.SkipSeed {
		app.Registry.Seed(registry.SeedUsernames...)
	}
	app.Start()

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockSynth: mockSynth,
	}
}
