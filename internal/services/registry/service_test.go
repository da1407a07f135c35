package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"pgregory.net/rapid"

	"github.com/mcoot/playerregistry/internal/dependencies/idgen"
	"github.com/mcoot/playerregistry/internal/dependencies/mocks"
	"github.com/mcoot/playerregistry/internal/feed"
	"github.com/mcoot/playerregistry/internal/model"
	"github.com/mcoot/playerregistry/internal/storage/memory"
	"github.com/mcoot/playerregistry/internal/testutil"
)

// recordingNotifier captures change events for assertions
type recordingNotifier struct {
	mu     sync.Mutex
	events []model.ChangeEvent
}

func (r *recordingNotifier) Notify(_ context.Context, e model.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingNotifier) Events() []model.ChangeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ChangeEvent(nil), r.events...)
}

type ServiceSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	notifier *recordingNotifier
	service  *Service
	ctx      context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.notifier = &recordingNotifier{}
	s.service = New(memory.New(), idgen.NewSequence(), s.clock, s.notifier, testutil.NopLogger())
	s.service.Seed(SeedUsernames...)
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestSeededPlayers() {
	s.Equal(model.Snapshot{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bob"},
		{ID: 3, Username: "charlie"},
	}, s.service.List(s.ctx))
	s.Empty(s.notifier.Events(), "seeding should not publish events")
}

func (s *ServiceSuite) TestAddAssignsNextID() {
	player := s.service.Add(s.ctx, "dave")

	s.Equal(model.Player{ID: 4, Username: "dave"}, player)

	matches := 0
	for _, p := range s.service.List(s.ctx) {
		if p.ID == player.ID {
			matches++
			s.Equal("dave", p.Username)
		}
	}
	s.Equal(1, matches)
}

func (s *ServiceSuite) TestAddDoesNotValidate() {
	player := s.service.Add(s.ctx, "")
	s.Equal("", player.Username)
	s.Equal(4, s.service.Count())
}

func (s *ServiceSuite) TestListIsSnapshot() {
	snapshot := s.service.List(s.ctx)
	snapshot[0].Username = "mallory"

	p, err := s.service.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("alice", p.Username)
}

func (s *ServiceSuite) TestGetNotFound() {
	_, err := s.service.Get(s.ctx, 99)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestUpdateReplacesInPlace() {
	updated, err := s.service.Update(s.ctx, 2, "bobby")
	s.Require().NoError(err)
	s.Equal(model.Player{ID: 2, Username: "bobby"}, updated)

	s.Equal(model.Snapshot{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bobby"},
		{ID: 3, Username: "charlie"},
	}, s.service.List(s.ctx))
}

func (s *ServiceSuite) TestUpdateNotFoundLeavesRegistryUnchanged() {
	before := s.service.List(s.ctx)

	_, err := s.service.Update(s.ctx, 42, "ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)

	s.Equal(before, s.service.List(s.ctx))
	s.Empty(s.notifier.Events())
}

func (s *ServiceSuite) TestRemoveNeverReusesID() {
	added := s.service.Add(s.ctx, "dave")
	s.True(s.service.Remove(s.ctx, added.ID))
	s.False(s.service.Remove(s.ctx, added.ID))

	_, err := s.service.Get(s.ctx, added.ID)
	s.ErrorIs(err, model.ErrPlayerNotFound)

	next := s.service.Add(s.ctx, "erin")
	s.Greater(next.ID, added.ID)
}

func (s *ServiceSuite) TestAddAndListIncludesNewPlayer() {
	player, snapshot := s.service.AddAndList(s.ctx, "SwiftNinja")

	s.Len(snapshot, 4)
	s.Equal(player, snapshot[len(snapshot)-1])
}

func (s *ServiceSuite) TestChangeEventsPublishedInOrder() {
	s.service.Add(s.ctx, "dave")
	s.clock.Advance(time.Minute)
	_, _ = s.service.Update(s.ctx, 4, "david")
	s.service.Remove(s.ctx, 4)
	s.service.Remove(s.ctx, 4)

	events := s.notifier.Events()
	s.Require().Len(events, 3)
	s.Equal(model.EventPlayerCreated, events[0].Type)
	s.Equal(model.EventPlayerUpdated, events[1].Type)
	s.Equal(model.EventPlayerDeleted, events[2].Type)
	s.Equal(model.Player{ID: 4, Username: "david"}, events[2].Player)
	s.Equal(s.clock.Now(), events[1].Timestamp)
}

// Walks through the reference scenario end to end
func (s *ServiceSuite) TestReferenceScenario() {
	dave := s.service.Add(s.ctx, "dave")
	s.Equal(model.PlayerID(4), dave.ID)
	s.Equal(model.Snapshot{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bob"},
		{ID: 3, Username: "charlie"},
		{ID: 4, Username: "dave"},
	}, s.service.List(s.ctx))

	bobby, err := s.service.Update(s.ctx, 2, "bobby")
	s.Require().NoError(err)
	s.Equal(model.Player{ID: 2, Username: "bobby"}, bobby)
	s.Equal(model.Snapshot{
		{ID: 1, Username: "alice"},
		{ID: 2, Username: "bobby"},
		{ID: 3, Username: "charlie"},
		{ID: 4, Username: "dave"},
	}, s.service.List(s.ctx))

	s.True(s.service.Remove(s.ctx, 1))
	s.Equal(model.Snapshot{
		{ID: 2, Username: "bobby"},
		{ID: 3, Username: "charlie"},
		{ID: 4, Username: "dave"},
	}, s.service.List(s.ctx))

	_, err = s.service.Get(s.ctx, 1)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ServiceSuite) TestConcurrentAddsProduceDistinctIDs() {
	const workers, perWorker = 8, 100

	var wg sync.WaitGroup
	results := make([][]model.Player, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				results[w] = append(results[w], s.service.Add(s.ctx, "worker"))
				_ = s.service.List(s.ctx)
			}
		}(w)
	}
	wg.Wait()

	seen := make(map[model.PlayerID]bool)
	for _, rs := range results {
		for i, p := range rs {
			s.False(seen[p.ID], "duplicate id %d", p.ID)
			seen[p.ID] = true
			if i > 0 {
				s.Greater(p.ID, rs[i-1].ID)
			}
		}
	}
	s.Equal(3+workers*perWorker, s.service.Count())

	// Snapshot order matches issuance order
	snapshot := s.service.List(s.ctx)
	for i := 1; i < len(snapshot); i++ {
		s.Greater(snapshot[i].ID, snapshot[i-1].ID)
	}
}

// TestRegistryModelProperty checks the registry against a simple slice model
// over random sequences of operations.
func TestRegistryModelProperty(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		clk := mocks.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
		svc := New(memory.New(), idgen.NewSequence(), clk, feed.Nop{}, testutil.NopLogger())
		svc.Seed(SeedUsernames...)
		ctx := context.Background()

		expected := []model.Player{{ID: 1, Username: "alice"}, {ID: 2, Username: "bob"}, {ID: 3, Username: "charlie"}}
		maxIssued := model.PlayerID(3)
		username := rapid.StringMatching(`[a-zA-Z]{0,12}`)

		indexOf := func(id model.PlayerID) int {
			for i, p := range expected {
				if p.ID == id {
					return i
				}
			}
			return -1
		}

		steps := rapid.IntRange(1, 60).Draw(r, "steps")
		for i := 0; i < steps; i++ {
			id := model.PlayerID(rapid.Int64Range(1, int64(maxIssued)+2).Draw(r, "id"))
			switch rapid.IntRange(0, 2).Draw(r, "op") {
			case 0:
				u := username.Draw(r, "username")
				p := svc.Add(ctx, u)
				if p.ID <= maxIssued {
					r.Fatalf("id %d not greater than previously issued %d", p.ID, maxIssued)
				}
				maxIssued = p.ID
				expected = append(expected, p)
			case 1:
				u := username.Draw(r, "username")
				_, err := svc.Update(ctx, id, u)
				if idx := indexOf(id); idx >= 0 {
					require.NoError(r, err)
					expected[idx] = model.Player{ID: id, Username: u}
				} else {
					require.ErrorIs(r, err, model.ErrPlayerNotFound)
				}
			case 2:
				removed := svc.Remove(ctx, id)
				idx := indexOf(id)
				require.Equal(r, idx >= 0, removed)
				if idx >= 0 {
					expected = append(expected[:idx], expected[idx+1:]...)
				}
			}

			require.Equal(r, model.Snapshot(expected), svc.List(ctx))
		}
	})
}
