package factory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/playerregistry/internal/model"
)

type IntegrationSuite struct {
	suite.Suite
	mini *miniredis.Miniredis
	app  *TestApp
	ctx  context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.mini.Addr()})
	s.app = NewTestApp(WithRedisFeed(client))
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

// Test: seed -> add -> update -> remove -> get, the reference walk-through
func (s *IntegrationSuite) TestRegistryWalkthrough() {
	reg := s.app.Registry

	s.Equal(model.Snapshot{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bob"},
		{ID: 3, Username: "charlie"},
	}, reg.List(s.ctx))

	dave := reg.Add(s.ctx, "dave")
	s.Equal(model.Player{ID: 4, Username: "dave"}, dave)

	bobby, err := reg.Update(s.ctx, 2, "bobby")
	s.Require().NoError(err)
	s.Equal(model.Player{ID: 2, Username: "bobby"}, bobby)

	s.True(reg.Remove(s.ctx, 1))

	_, err = reg.Get(s.ctx, 1)
	s.ErrorIs(err, model.ErrPlayerNotFound)

	s.Equal(model.Snapshot{
		{ID: 2, Username: "bobby"},
		{ID: 3, Username: "charlie"},
		{ID: 4, Username: "dave"},
	}, reg.List(s.ctx))
}

// Test: mutations reach the Redis feed in order, seeding does not
func (s *IntegrationSuite) TestMutationsArePublished() {
	reg := s.app.Registry

	reg.Add(s.ctx, "dave")
	_, err := reg.Update(s.ctx, 4, "david")
	s.Require().NoError(err)
	reg.Remove(s.ctx, 4)

	s.Require().Eventually(func() bool {
		return s.app.FeedPublisher.Published() == 3
	}, 2*time.Second, 5*time.Millisecond)

	last, err := s.mini.Get("players:feed:last")
	s.Require().NoError(err)
	var event model.ChangeEvent
	s.Require().NoError(json.Unmarshal([]byte(last), &event))
	s.Equal(model.EventPlayerDeleted, event.Type)
	s.Equal(model.Player{ID: 4, Username: "david"}, event.Player)
	s.True(event.Timestamp.Equal(s.app.MockClock.Now()))
}

// Test: a stream session shares the registry and its synthesized players are visible to List
func (s *IntegrationSuite) TestStreamSessionAddsToSharedRegistry() {
	s.app.MockSynth.QueueNames("Swift Falcon")

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	out := make(chan model.Snapshot)
	done := make(chan error, 1)
	go func() {
		done <- s.app.StreamController.Stream(ctx, func(ctx context.Context, snapshot model.Snapshot) error {
			select {
			case out <- snapshot:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	s.Len(<-out, 3)

	s.Require().Eventually(func() bool { return s.app.MockClock.TickerCount() == 1 }, 2*time.Second, time.Millisecond)
	ticker := s.app.MockClock.Ticker(0)
	s.Equal(5*time.Second, ticker.Interval)
	s.Require().True(ticker.Tick())

	snapshot := <-out
	s.Require().Len(snapshot, 4)
	s.Equal("Swift Falcon", snapshot[3].Username)

	player, err := s.app.Registry.Get(s.ctx, snapshot[3].ID)
	s.Require().NoError(err)
	s.Equal("Swift Falcon", player.Username)

	cancel()
	s.NoError(<-done)
	s.True(ticker.Stopped())
}
