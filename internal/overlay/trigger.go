package overlay

import (
	"sync"

	"github.com/mcrowther/veil/internal/event"
)

// ElementTrigger is a real, in-tree trigger element. It receives
// detail-carrying lifecycle events and close-time focus restoration.
type ElementTrigger struct {
	event.Node

	mu      sync.Mutex
	focused bool
	onFocus func()
}

// NewElementTrigger creates a trigger element.
func NewElementTrigger() *ElementTrigger {
	return &ElementTrigger{}
}

func (t *ElementTrigger) Virtual() bool { return false }

func (t *ElementTrigger) Focus() {
	t.mu.Lock()
	t.focused = true
	cb := t.onFocus
	t.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Focused reports whether Focus has been called.
func (t *ElementTrigger) Focused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.focused
}

// Blur clears the focused flag.
func (t *ElementTrigger) Blur() {
	t.mu.Lock()
	t.focused = false
	t.mu.Unlock()
}

// OnFocus registers a callback invoked whenever the trigger receives focus.
func (t *ElementTrigger) OnFocus(cb func()) {
	t.mu.Lock()
	t.onFocus = cb
	t.mu.Unlock()
}

func (t *ElementTrigger) Events() event.Target { return t }
