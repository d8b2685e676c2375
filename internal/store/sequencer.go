package store

import "sync"

// Ticket identifies one request for a logical operation.
type Ticket struct {
	Op  string
	Seq uint64
}

// Sequencer hands out tickets per operation. Starting a new request for an
// operation supersedes every older ticket for it, so a slow response that
// lands after a newer one can be recognized and dropped.
type Sequencer struct {
	mu     sync.Mutex
	latest map[string]uint64
}

// NewSequencer returns an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{latest: make(map[string]uint64)}
}

// Begin issues the newest ticket for op.
func (s *Sequencer) Begin(op string) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[op]++
	return Ticket{Op: op, Seq: s.latest[op]}
}

// Current reports whether t is still the newest ticket for its operation.
func (s *Sequencer) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[t.Op] == t.Seq
}
