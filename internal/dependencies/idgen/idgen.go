package idgen

import (
	"sync/atomic"

	"github.com/mcoot/playerregistry/internal/model"
)

// Generator issues player IDs
type Generator interface {
	// Next returns an ID strictly greater than every ID previously returned
	Next() model.PlayerID
}

// Sequence is a lock-free Generator whose first ID is 1
type Sequence struct {
	last atomic.Int64
}

// NewSequence creates a Sequence starting at 1
func NewSequence() *Sequence {
	return &Sequence{}
}

// NewSequenceFrom creates a Sequence that continues after last
func NewSequenceFrom(last model.PlayerID) *Sequence {
	s := &Sequence{}
	s.last.Store(int64(last))
	return s
}

// Next returns the next ID
func (s *Sequence) Next() model.PlayerID {
	return model.PlayerID(s.last.Add(1))
}

// Last returns the most recently issued ID, or 0 if none
func (s *Sequence) Last() model.PlayerID {
	return model.PlayerID(s.last.Load())
}
