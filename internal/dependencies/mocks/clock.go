package mocks

import (
	"sync"
	"time"

	"github.com/mcoot/playerregistry/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Tickers it creates only fire when the test calls Tick.
type MockClock struct {
	mu          sync.Mutex
	currentTime time.Time
	tickers     []*MockTicker
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{currentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentTime
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = c.currentTime.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentTime = t
}

// NewTicker creates a manually driven ticker
func (c *MockClock) NewTicker(d time.Duration) clock.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &MockTicker{
		Interval: d,
		clock:    c,
		ch:       make(chan time.Time),
		stopped:  make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// TickerCount returns how many tickers have been created
func (c *MockClock) TickerCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

// Ticker returns the i-th created ticker
func (c *MockClock) Ticker(i int) *MockTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.tickers) {
		return nil
	}
	return c.tickers[i]
}

// MockTicker is a ticker fired by the test
type MockTicker struct {
	Interval time.Duration

	clock    *MockClock
	ch       chan time.Time
	stopped  chan struct{}
	stopOnce sync.Once
}

// C returns the tick channel
func (t *MockTicker) C() <-chan time.Time {
	return t.ch
}

// Stop stops the ticker; pending and future Tick calls return false
func (t *MockTicker) Stop() {
	t.stopOnce.Do(func() { close(t.stopped) })
}

// Stopped reports whether Stop has been called
func (t *MockTicker) Stopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

// Tick advances the clock by one interval and blocks until the tick is
// received or the ticker is stopped. Returns true if the tick was received.
func (t *MockTicker) Tick() bool {
	t.clock.Advance(t.Interval)
	now := t.clock.Now()
	select {
	case <-t.stopped:
		return false
	default:
	}
	select {
	case t.ch <- now:
		return true
	case <-t.stopped:
		return false
	}
}
