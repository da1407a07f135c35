package stream

import (
	"context"
	"errors"
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

const waitTimeout = 2 * time.Second

type SessionSuite struct {
	suite.Suite
	clock    *mocks.MockClock
	synth    *mocks.MockSynthesizer
	registry *registry.Service
	ctx      context.Context
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.synth = mocks.NewMockSynthesizer()
	s.registry = registry.New(memory.New(), idgen.NewSequence(), s.clock, nil, testutil.NopLogger())
	s.registry.Seed(registry.SeedUsernames...)
	s.ctx = context.Background()
}

type runningSession struct {
	session *Session
	ticker  *mocks.MockTicker
	out     chan model.Snapshot
	done    chan error
	cancel  context.CancelFunc
}

// start runs a session whose emissions are delivered on an unbuffered channel
func (s *SessionSuite) start() *runningSession {
	ctx, cancel := context.WithCancel(s.ctx)
	s.T().Cleanup(cancel)

	tickersBefore := s.clock.TickerCount()
	rs := &runningSession{
		session: NewSession(s.registry, s.synth, s.clock, time.Second, testutil.NopLogger()),
		out:     make(chan model.Snapshot),
		done:    make(chan error, 1),
		cancel:  cancel,
	}
	go func() {
		rs.done <- rs.session.Run(ctx, func(ctx context.Context, snapshot model.Snapshot) error {
			select {
			case rs.out <- snapshot:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	s.Require().Eventually(func() bool {
		return s.clock.TickerCount() > tickersBefore
	}, waitTimeout, time.Millisecond)
	rs.ticker = s.clock.Ticker(tickersBefore)
	return rs
}

func (s *SessionSuite) next(rs *runningSession) model.Snapshot {
	select {
	case snapshot := <-rs.out:
		return snapshot
	case <-time.After(waitTimeout):
		s.FailNow("timed out waiting for snapshot")
		return nil
	}
}

func (s *SessionSuite) wait(rs *runningSession) error {
	select {
	case err := <-rs.done:
		return err
	case <-time.After(waitTimeout):
		s.FailNow("timed out waiting for session to close")
		return nil
	}
}

func (s *SessionSuite) TestFirstEmissionIsCurrentSnapshot() {
	expected := s.registry.List(s.ctx)

	rs := s.start()
	s.Equal(expected, s.next(rs))
	s.Equal(StateStreaming, rs.session.State())
	s.Equal(0, s.synth.Calls())
}

func (s *SessionSuite) TestTicksEmitGrowingSnapshots() {
	s.synth.QueueNames("SwiftNinja", "BoldMage", "WiseRogue")
	rs := s.start()

	previous := s.next(rs)
	received := []model.Snapshot{previous}
	for i := 0; i < 3; i++ {
		s.Require().True(rs.ticker.Tick())
		snapshot := s.next(rs)
		s.Len(snapshot, len(previous)+1)
		s.Equal(previous, snapshot[:len(previous)])
		previous = snapshot
		received = append(received, snapshot)
	}

	// 3 ticks yield 4 items, each one player longer than the last
	s.Len(received, 4)
	for i, snapshot := range received {
		s.Len(snapshot, 3+i)
	}
	// The counter moves once emit has returned
	s.Eventually(func() bool {
		return rs.session.Emitted() == 4
	}, waitTimeout, time.Millisecond)
	s.Equal([]string{"SwiftNinja", "BoldMage", "WiseRogue"}, []string{
		previous[3].Username, previous[4].Username, previous[5].Username,
	})
	s.Equal(time.Second, rs.ticker.Interval)
}

func (s *SessionSuite) TestCancellationReleasesTicker() {
	rs := s.start()
	s.next(rs)

	rs.cancel()
	s.NoError(s.wait(rs))

	s.True(rs.ticker.Stopped())
	s.False(rs.ticker.Tick())
	s.Equal(StateClosed, rs.session.State())
	s.Equal(3, s.registry.Count())
}

func (s *SessionSuite) TestCancelBeforeFirstEmission() {
	rs := s.start()
	rs.cancel()

	s.NoError(s.wait(rs))
	s.Equal(int64(0), rs.session.Emitted())
	s.Equal(StateClosed, rs.session.State())
}

func (s *SessionSuite) TestEmitErrorClosesSession() {
	boom := errors.New("boom")
	session := NewSession(s.registry, s.synth, s.clock, time.Second, testutil.NopLogger())

	err := session.Run(s.ctx, func(context.Context, model.Snapshot) error { return boom })

	s.ErrorIs(err, boom)
	s.Equal(StateClosed, session.State())
	s.True(s.clock.Ticker(0).Stopped())
}

func (s *SessionSuite) TestRunTwiceFails() {
	rs := s.start()
	s.next(rs)

	err := rs.session.Run(s.ctx, func(context.Context, model.Snapshot) error { return nil })
	s.ErrorIs(err, ErrSessionStarted)

	rs.cancel()
	s.NoError(s.wait(rs))
}

func (s *SessionSuite) TestSessionsAreIndependentButShareRegistry() {
	a := s.start()
	s.Len(s.next(a), 3)
	b := s.start()
	s.Len(s.next(b), 3)

	s.Require().True(a.ticker.Tick())
	s.Len(s.next(a), 4)

	// b sees a's addition on its own next tick
	s.Require().True(b.ticker.Tick())
	s.Len(s.next(b), 5)

	a.cancel()
	s.NoError(s.wait(a))

	s.Require().True(b.ticker.Tick())
	s.Len(s.next(b), 6)
	s.NotEqual(a.session.ID(), b.session.ID())
}

func (s *SessionSuite) TestZeroIntervalUsesDefault() {
	session := NewSession(s.registry, s.synth, s.clock, 0, testutil.NopLogger())
	s.Equal(DefaultInterval, session.interval)
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		StateInit:      "init",
		StateStreaming: "streaming",
		StateClosed:    "closed",
		State(9):       "state(9)",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int32(state), got, want)
		}
	}
}
