package stream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playerregistry/internal/dependencies/idgen"
	"github.com/mcoot/playerregistry/internal/dependencies/mocks"
	"github.com/mcoot/playerregistry/internal/model"
	"github.com/mcoot/playerregistry/internal/services/registry"
	"github.com/mcoot/playerregistry/internal/storage/memory"
	"github.com/mcoot/playerregistry/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	registry *registry.Service
	ctx      context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.registry = registry.New(memory.New(), idgen.NewSequence(), s.clock, nil, testutil.NopLogger())
	s.registry.Seed(registry.SeedUsernames...)
	s.ctx = context.Background()
}

func (s *ControllerSuite) newController(cfg Config) *Controller {
	return NewController(s.registry, mocks.NewMockSynthesizer(), s.clock, cfg, testutil.NopLogger())
}

func (s *ControllerSuite) TestQueryAll() {
	c := s.newController(DefaultConfig())
	s.Equal(s.registry.List(s.ctx), c.QueryAll(s.ctx))
}

func (s *ControllerSuite) TestSubmitNewSkipsValidationByDefault() {
	c := s.newController(DefaultConfig())

	player, err := c.SubmitNew(s.ctx, "x")
	s.Require().NoError(err)
	s.Equal(model.Player{ID: 4, Username: "x"}, player)
}

func (s *ControllerSuite) TestSubmitNewValidatesWhenConfigured() {
	c := s.newController(Config{Interval: time.Second, ValidateSubmissions: true})

	_, err := c.SubmitNew(s.ctx, "  ")
	s.ErrorIs(err, model.ErrInvalidUsername)
	s.Equal(3, s.registry.Count())

	player, err := c.SubmitNew(s.ctx, "dave")
	s.Require().NoError(err)
	s.Equal("dave", player.Username)
}

func (s *ControllerSuite) TestStreamTracksActiveSessions() {
	c := s.newController(Config{})
	s.Equal(DefaultInterval, c.Interval())

	ctx, cancel := context.WithCancel(s.ctx)
	first := make(chan model.Snapshot, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.Stream(ctx, func(_ context.Context, snapshot model.Snapshot) error {
			select {
			case first <- snapshot:
			default:
			}
			return nil
		})
	}()

	select {
	case snapshot := <-first:
		s.Len(snapshot, 3)
	case <-time.After(waitTimeout):
		s.FailNow("no initial snapshot")
	}
	s.Equal(int64(1), c.ActiveSessions())

	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(waitTimeout):
		s.FailNow("stream did not stop")
	}
	s.Equal(int64(0), c.ActiveSessions())
}

func (s *ControllerSuite) TestCloseEndsRunningSessions() {
	c := s.newController(DefaultConfig())

	started := make(chan struct{}, 2)
	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			done <- c.Stream(s.ctx, func(_ context.Context, _ model.Snapshot) error {
				started <- struct{}{}
				return nil
			})
		}()
	}
	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(waitTimeout):
			s.FailNow("session did not start")
		}
	}

	c.Close()

	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			s.NoError(err)
		case <-time.After(waitTimeout):
			s.FailNow("session did not stop on Close")
		}
	}
	s.Equal(int64(0), c.ActiveSessions())
}
