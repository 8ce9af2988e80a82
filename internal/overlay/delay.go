package overlay

import (
	"context"
	"sync"
	"time"
)

// DelayRegistry tracks pending open-delay timers, at most one per owning
// overlay. Timers are shared: concurrent open requests for the same overlay
// join the pending timer, and anyone (typically a superseding close, or
// another overlay claiming the hover slot) can cancel it.
type DelayRegistry struct {
	mu      sync.Mutex
	pending map[string]*pendingDelay
}

type pendingDelay struct {
	done      chan struct{}
	timer     *time.Timer
	cancelled bool
	resolved  bool
}

// NewDelayRegistry creates an empty registry.
func NewDelayRegistry() *DelayRegistry {
	return &DelayRegistry{pending: make(map[string]*pendingDelay)}
}

// OpenTimer starts (or joins) the open-delay timer for key and blocks until
// it elapses or is cancelled. It reports true when the pending open was
// cancelled before elapsing; a done context counts as cancellation.
func (r *DelayRegistry) OpenTimer(ctx context.Context, key string, d time.Duration) bool {
	r.mu.Lock()
	p, ok := r.pending[key]
	if !ok {
		p = &pendingDelay{done: make(chan struct{})}
		p.timer = time.AfterFunc(d, func() { r.resolve(key, p) })
		r.pending[key] = p
	}
	r.mu.Unlock()

	select {
	case <-p.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return p.cancelled
	case <-ctx.Done():
		return true
	}
}

// Cancel cancels any pending open timer for key. Waiters observe the
// cancelled outcome.
func (r *DelayRegistry) Cancel(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[key]
	if !ok {
		return
	}
	p.timer.Stop()
	p.cancelled = true
	r.finish(key, p)
}

// Pending reports whether an open timer is outstanding for key.
func (r *DelayRegistry) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[key]
	return ok
}

// resolve marks a timer as elapsed. Runs on the timer goroutine.
func (r *DelayRegistry) resolve(key string, p *pendingDelay) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Cancel may have won the race after the timer fired.
	if p.resolved {
		return
	}
	r.finish(key, p)
}

// finish closes out a pending entry. Caller holds r.mu.
func (r *DelayRegistry) finish(key string, p *pendingDelay) {
	if p.resolved {
		return
	}
	p.resolved = true
	if r.pending[key] == p {
		delete(r.pending, key)
	}
	close(p.done)
}
