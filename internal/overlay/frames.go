package overlay

import (
	"context"
	"sync"
	"time"
)

// FrameScheduler yields until the host's next rendering frame. Every wait is
// a suspension point where a new desired-state change can interleave.
type FrameScheduler interface {
	Next(ctx context.Context) error
}

// TickScheduler drives frames off a wall-clock ticker. It is the scheduler
// for hosts without a native frame callback (the terminal host).
type TickScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	frame   chan struct{}
	stopCh  chan struct{}
	running bool
}

// NewTickScheduler creates a scheduler ticking at the given interval.
func NewTickScheduler(interval time.Duration) *TickScheduler {
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	return &TickScheduler{
		interval: interval,
		frame:    make(chan struct{}),
	}
}

// Start begins emitting frames. Calling Start on a running scheduler is a
// no-op.
func (s *TickScheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})

	go s.loop(s.stopCh)
}

// Stop halts frame emission. Waiters stay blocked until Start is called
// again or their context ends.
func (s *TickScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

func (s *TickScheduler) loop(stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			close(s.frame)
			s.frame = make(chan struct{})
			s.mu.Unlock()
		case <-stop:
			return
		}
	}
}

// Next blocks until the next frame boundary.
func (s *TickScheduler) Next(ctx context.Context) error {
	s.mu.Lock()
	frame := s.frame
	s.mu.Unlock()

	select {
	case <-frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ManualScheduler releases frames only when Step is called. Tests and the
// replay harness use it to make every suspension point deterministic.
type ManualScheduler struct {
	mu      sync.Mutex
	waiters []chan struct{}
}

// NewManualScheduler creates an idle manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Next blocks until the next Step.
func (s *ManualScheduler) Next(ctx context.Context) error {
	ch := make(chan struct{})
	s.mu.Lock()
	s.waiters = append(s.waiters, ch)
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Step releases everyone currently waiting on a frame boundary.
func (s *ManualScheduler) Step() {
	s.mu.Lock()
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	for _, ch := range waiters {
		close(ch)
	}
}

// Waiting reports how many callers are parked at a frame boundary.
func (s *ManualScheduler) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.waiters)
}
