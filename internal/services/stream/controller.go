package stream

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/mcoot/playerregistry/internal/dependencies/clock"
	"github.com/mcoot/playerregistry/internal/model"
	"github.com/mcoot/playerregistry/internal/services/registry"
	"github.com/mcoot/playerregistry/internal/services/synth"
)

// Config holds settings for the messaging operations
type Config struct {
	// Interval between synthesized additions in a session
	Interval time.Duration
	// ValidateSubmissions applies the username boundary rule to SubmitNew.
	// Off by default to match the request/reply channel's historical behavior.
	ValidateSubmissions bool
}

// DefaultConfig returns the default stream configuration
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
	}
}

// Controller serves the one-shot messaging operations and opens stream sessions
type Controller struct {
	registry *registry.Service
	synth    synth.Synthesizer
	clock    clock.Clock
	cfg      Config
	logger   *slog.Logger

	active atomic.Int64

	// done ends every running session on Close
	done      context.Context
	closeDone context.CancelFunc
}

// NewController creates a new stream Controller
func NewController(
	registry *registry.Service,
	synthesizer synth.Synthesizer,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	done, closeDone := context.WithCancel(context.Background())
	return &Controller{
		registry:  registry,
		synth:     synthesizer,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "stream")),
		done:      done,
		closeDone: closeDone,
	}
}

// QueryAll returns the current snapshot
func (c *Controller) QueryAll(ctx context.Context) model.Snapshot {
	return c.registry.List(ctx)
}

// SubmitNew adds a player from a raw username
func (c *Controller) SubmitNew(ctx context.Context, username string) (model.Player, error) {
	if c.cfg.ValidateSubmissions {
		if err := model.ValidateUsername(username); err != nil {
			return model.Player{}, err
		}
	}
	return c.registry.Add(ctx, username), nil
}

// NewSession creates a session bound to the shared registry
func (c *Controller) NewSession() *Session {
	return NewSession(c.registry, c.synth, c.clock, c.cfg.Interval, c.logger)
}

// Stream opens a session and runs it until ctx is cancelled, emit fails,
// or the controller is closed
func (c *Controller) Stream(ctx context.Context, emit EmitFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.done, cancel)
	defer stop()

	session := c.NewSession()
	c.active.Add(1)
	defer c.active.Add(-1)
	return session.Run(ctx, emit)
}

// Close ends all running sessions and any opened afterwards
func (c *Controller) Close() {
	c.closeDone()
}

// ActiveSessions returns the number of running sessions
func (c *Controller) ActiveSessions() int64 {
	return c.active.Load()
}

// Interval returns the configured tick interval
func (c *Controller) Interval() time.Duration {
	return c.cfg.Interval
}
