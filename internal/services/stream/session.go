package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/playerregistry/internal/dependencies/clock"
	"github.com/mcoot/playerregistry/internal/model"
	"github.com/mcoot/playerregistry/internal/services/synth"
)

// DefaultInterval is the time between synthesized additions
const DefaultInterval = 5 * time.Second

// ErrSessionStarted is returned when Run is called more than once
var ErrSessionStarted = errors.New("stream session already started")

// State is the lifecycle state of a session
type State int32

const (
	StateInit State = iota
	StateStreaming
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Registry is the part of the registry a session reads and mutates
type Registry interface {
	List(ctx context.Context) model.Snapshot
	AddAndList(ctx context.Context, username string) (model.Player, model.Snapshot)
}

// EmitFunc delivers one snapshot to the subscriber. It may block to apply
// backpressure; a returned error closes the session.
type EmitFunc func(ctx context.Context, snapshot model.Snapshot) error

// Session is one subscriber's independent snapshot stream
type Session struct {
	id       string
	registry Registry
	synth    synth.Synthesizer
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	state   atomic.Int32
	emitted atomic.Int64
}

// NewSession creates a session in the init state
func NewSession(
	registry Registry,
	synthesizer synth.Synthesizer,
	clk clock.Clock,
	interval time.Duration,
	logger *slog.Logger,
) *Session {
	if interval <= 0 {
		interval = DefaultInterval
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		registry: registry,
		synth:    synthesizer,
		clock:    clk,
		interval: interval,
		logger:   logger.With(slog.String("session_id", id)),
	}
}

// ID returns the session's unique identifier
func (s *Session) ID() string {
	return s.id
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}

// Emitted returns how many snapshots have been delivered
func (s *Session) Emitted() int64 {
	return s.emitted.Load()
}

// Run emits the current snapshot, then on every tick synthesizes a player,
// adds it and emits the updated snapshot. It blocks until ctx is cancelled
// or emit fails; cancellation is a normal close and returns nil.
func (s *Session) Run(ctx context.Context, emit EmitFunc) error {
	if !s.state.CompareAndSwap(int32(StateInit), int32(StateStreaming)) {
		return ErrSessionStarted
	}
	defer s.state.Store(int32(StateClosed))

	startedAt := s.clock.Now()
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("stream session started", slog.Duration("interval", s.interval))
	defer func() {
		s.logger.Info("stream session closed",
			slog.Int64("emitted", s.emitted.Load()),
			slog.Duration("duration", s.clock.Now().Sub(startedAt)))
	}()

	if err := s.emit(ctx, emit, s.registry.List(ctx)); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			// A cancelled session must not mutate the registry
			if ctx.Err() != nil {
				return nil
			}
			player, snapshot := s.registry.AddAndList(ctx, s.synth.Synthesize())
			s.logger.Debug("stream tick",
				slog.Int64("player_id", int64(player.ID)),
				slog.String("username", player.Username),
				slog.Int("players", len(snapshot)))
			if err := s.emit(ctx, emit, snapshot); err != nil {
				return err
			}
		}
	}
}

func (s *Session) emit(ctx context.Context, emit EmitFunc, snapshot model.Snapshot) error {
	if err := emit(ctx, snapshot); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("emit snapshot: %w", err)
	}
	s.emitted.Add(1)
	return nil
}
