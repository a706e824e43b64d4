// Package event provides the one-shot, re-armable signal the ADKG driver
// uses to wake up waiters whenever a new ACSS output arrives (the
// acss_signal asyncio.Event from original_source/adkg/adkg.py, shared
// between the ACS RBC-subset predicate and the key-derivation wait for
// mks members per SPEC_FULL.md §3.2).
package event

import (
	"context"
	"sync"
)

// Signal is a level-triggered condition: Set wakes every current and
// future Wait call until the next Clear. Unlike a sync.Cond, Wait accepts
// a context so a waiter can be cancelled without requiring a matching
// Set/Clear to wake it, mirroring asyncio task cancellation in the
// original_source driver.
type Signal struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

// NewSignal returns a cleared Signal.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Set marks the signal raised and wakes all waiters.
func (s *Signal) Set() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		s.set = true
		close(s.ch)
	}
}

// Clear lowers the signal, arming a fresh wait gate for the next Set.
func (s *Signal) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set {
		s.set = false
		s.ch = make(chan struct{})
	}
}

// Wait blocks until Set is called at least once after the most recent
// Clear, or ctx is done, whichever happens first.
func (s *Signal) Wait(ctx context.Context) error {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
