package mocks

import (
	"fmt"
	"sync"
)

// MockSynthesizer returns queued usernames in order, then "synth-N"
type MockSynthesizer struct {
	mu     sync.Mutex
	names  []string
	index  int
	called int
}

// NewMockSynthesizer creates a MockSynthesizer with the given queue
func NewMockSynthesizer(names ...string) *MockSynthesizer {
	return &MockSynthesizer{names: names}
}

// Synthesize returns the next username
func (s *MockSynthesizer) Synthesize() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.called++
	if s.index < len(s.names) {
		name := s.names[s.index]
		s.index++
		return name
	}
	return fmt.Sprintf("synth-%d", s.called)
}

// QueueNames adds usernames to the queue
func (s *MockSynthesizer) QueueNames(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, names...)
}

// Calls returns how many usernames have been synthesized
func (s *MockSynthesizer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.called
}
