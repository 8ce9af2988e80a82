package overlay

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mcrowther/veil/internal/event"
)

// Element is a basic in-process Openable: an event node with an open flag,
// a connected bit and an optional transition duration. Hosts with richer
// surfaces embed it or implement Openable directly.
type Element struct {
	event.Node

	mu        sync.Mutex
	open      bool
	connected bool
	settle    time.Duration
	slots     []string
}

// NewElement returns a connected element.
func NewElement() *Element {
	return &Element{connected: true}
}

func (e *Element) Open() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

func (e *Element) SetOpen(open bool) {
	e.mu.Lock()
	e.open = open
	e.mu.Unlock()
}

func (e *Element) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

// SetConnected marks the element attached to or detached from its tree.
func (e *Element) SetConnected(connected bool) {
	e.mu.Lock()
	e.connected = connected
	e.mu.Unlock()
}

// TransitionDuration implements Animated.
func (e *Element) TransitionDuration() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settle
}

// SetTransitionDuration sets how long the element's visual transition runs.
func (e *Element) SetTransitionDuration(d time.Duration) {
	e.mu.Lock()
	e.settle = d
	e.mu.Unlock()
}

// Slots implements Slotted.
func (e *Element) Slots() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.slots
}

// SetSlots declares the element's content-projection slots.
func (e *Element) SetSlots(slots ...string) {
	e.mu.Lock()
	e.slots = slots
	e.mu.Unlock()
}

// Root is a ready-made Host: the element itself is the primary surface
// unless nested participants are declared.
type Root struct {
	Element

	id          string
	interaction Interaction

	rmu           sync.Mutex
	trigger       Trigger
	participants  []Openable
	receivesFocus bool
	openDelay     time.Duration
}

// NewRoot creates a host for the given interaction kind with a fresh id.
// Focus management starts enabled.
func NewRoot(interaction Interaction) *Root {
	r := &Root{
		id:            ulid.Make().String(),
		interaction:   interaction,
		receivesFocus: true,
	}
	r.SetConnected(true)
	return r
}

func (r *Root) ID() string               { return r.id }
func (r *Root) Interaction() Interaction { return r.interaction }

func (r *Root) Trigger() Trigger {
	r.rmu.Lock()
	defer r.rmu.Unlock()
	return r.trigger
}

// SetTrigger records what caused the overlay to open. Nil behaves like a
// virtual trigger.
func (r *Root) SetTrigger(t Trigger) {
	r.rmu.Lock()
	r.trigger = t
	r.rmu.Unlock()
}

func (r *Root) Openables() []Openable {
	r.rmu.Lock()
	defer r.rmu.Unlock()
	if len(r.participants) == 0 {
		return []Openable{r}
	}
	return r.participants
}

// SetOpenables declares the participating elements, primary surface first.
func (r *Root) SetOpenables(els ...Openable) {
	r.rmu.Lock()
	r.participants = els
	r.rmu.Unlock()
}

func (r *Root) ReceivesFocus() bool {
	r.rmu.Lock()
	defer r.rmu.Unlock()
	return r.receivesFocus
}

// SetReceivesFocus enables or disables focus management.
func (r *Root) SetReceivesFocus(v bool) {
	r.rmu.Lock()
	r.receivesFocus = v
	r.rmu.Unlock()
}

func (r *Root) OpenDelay() time.Duration {
	r.rmu.Lock()
	defer r.rmu.Unlock()
	return r.openDelay
}

// SetOpenDelay sets the delay before opening; zero disables it.
func (r *Root) SetOpenDelay(d time.Duration) {
	r.rmu.Lock()
	r.openDelay = d
	r.rmu.Unlock()
}
