// Package overlay implements the open/close choreography for floating UI
// surfaces: popovers, tooltips, dialogs and menus. The Controller sequences
// a delay phase, a platform attach phase, a visual transition phase and a
// focus phase against collaborator interfaces owned by the host, re-checking
// the desired state at every suspension point so rapid re-toggling simply
// abandons the superseded run.
package overlay

import (
	"time"

	"github.com/mcrowther/veil/internal/event"
)

// Interaction identifies what kind of user interaction drives an overlay.
// Hover is the hint kind: it never steals focus.
type Interaction string

const (
	InteractionClick     Interaction = "click"
	InteractionHover     Interaction = "hover"
	InteractionLongpress Interaction = "longpress"
	InteractionModal     Interaction = "modal"
)

// ToggleDetail is the payload of trigger-scoped sp-opened/sp-closed events,
// telling trigger-side listeners which interaction caused the change.
type ToggleDetail struct {
	Interaction Interaction
}

// BeforeToggleDetail announces the state a transition is moving toward on
// the cancelable beforetoggle event.
type BeforeToggleDetail struct {
	OldState string
	NewState string
}

// State names used in BeforeToggleDetail.
const (
	StateOpen   = "open"
	StateClosed = "closed"
)

// Focusable is anything that can receive focus.
type Focusable interface {
	Focus()
}

// Openable is an element participating in an open/close transition. The
// primary surface is index 0 of Host.Openables; nested surfaces (submenus,
// related panels) follow.
type Openable interface {
	event.Target

	Open() bool
	SetOpen(bool)

	// Connected reports whether the element is attached to a live tree.
	// Detached surfaces are never presented.
	Connected() bool
}

// Slotted is implemented by openables that project external content through
// named slots; the focus search descends into them when the subtree itself
// has nothing focusable.
type Slotted interface {
	Slots() []string
}

// Host is the overlay element the Controller is attached to. It owns the
// live open flag; the Controller only reads it, except for the delay phase's
// corrective write when a pending open is cancelled.
type Host interface {
	Openable

	ID() string
	Interaction() Interaction
	Trigger() Trigger

	// Openables returns the participating elements, primary surface first.
	Openables() []Openable

	// ReceivesFocus reports whether focus management is enabled.
	ReceivesFocus() bool

	// OpenDelay returns the delay before opening; zero disables the delay
	// phase.
	OpenDelay() time.Duration
}

// Trigger is the element (or virtual stand-in) that caused the overlay to
// open. Virtual triggers have no presence in the tree: lifecycle events are
// not dispatched on them and they never receive restored focus.
type Trigger interface {
	Virtual() bool
	Focus()

	// Events returns the trigger's event target, or nil for virtual
	// triggers.
	Events() event.Target
}

// VirtualTrigger anchors an overlay to a coordinate instead of an element.
type VirtualTrigger struct {
	X, Y int
}

func (VirtualTrigger) Virtual() bool        { return true }
func (VirtualTrigger) Focus()               {}
func (VirtualTrigger) Events() event.Target { return nil }

// Positioner is the external placement engine, invoked once the surface is
// presented. No result is consumed here.
type Positioner interface {
	Reposition(Openable)
}

// FocusScope finds and tracks focusable elements for the focus phase.
type FocusScope interface {
	// FirstFocusable returns the first focusable descendant of root, or nil.
	FirstFocusable(root Openable) Focusable

	// FirstFocusableInSlot returns the first focusable element reachable
	// through the named content-projection slot of root, or nil.
	FirstFocusableInSlot(root Openable, slot string) Focusable

	// Active returns the element that currently holds focus, or nil.
	Active() Focusable

	// Contains reports whether el lives inside root's subtree.
	Contains(root Openable, el Focusable) bool
}
