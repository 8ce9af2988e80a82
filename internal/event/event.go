// Package event provides the lifecycle event plumbing overlay hosts dispatch
// on: typed events with bubbling/composed/cancelable flags, listener
// registries, and parent-chain propagation.
package event

import "sync"

// Well-known lifecycle event types. Consumers depend on these names.
const (
	TypeOpened       = "sp-opened"
	TypeClosed       = "sp-closed"
	TypeBeforeToggle = "beforetoggle"
)

// Event is a dispatched lifecycle event. Bubbles and Composed describe the
// propagation scope the dispatcher chose; Detail carries per-event payload.
type Event struct {
	Type       string
	Bubbles    bool
	Composed   bool
	Cancelable bool
	Detail     any

	// Target is set by DispatchEvent to the node the event was dispatched on.
	Target Target

	prevented bool
	stopped   bool
}

// PreventDefault marks a cancelable event as prevented. Calls on
// non-cancelable events are ignored.
func (e *Event) PreventDefault() {
	if e.Cancelable {
		e.prevented = true
	}
}

// DefaultPrevented reports whether a listener called PreventDefault.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// StopPropagation stops the event from reaching ancestor targets.
func (e *Event) StopPropagation() { e.stopped = true }

// Listener receives dispatched events.
type Listener func(*Event)

// Target is anything events can be dispatched on.
type Target interface {
	// DispatchEvent invokes listeners for the event's type on this target
	// and, for bubbling events, on each ancestor in turn. It returns false
	// when a listener prevented the event's default.
	DispatchEvent(*Event) bool

	// AddListener registers a listener for the given event type and returns
	// a removal func. Removal is idempotent.
	AddListener(typ string, fn Listener) (remove func())
}

// Node is a concrete Target with an optional parent, forming the tree that
// bubbling events walk. The zero value is usable.
type Node struct {
	mu        sync.Mutex
	parent    Target
	listeners map[string][]*entry
	nextID    int
}

type entry struct {
	id   int
	fn   Listener
	once bool
}

// SetParent links this node under parent for bubbling. A nil parent detaches.
func (n *Node) SetParent(parent Target) {
	n.mu.Lock()
	n.parent = parent
	n.mu.Unlock()
}

// Parent returns the node's current parent target, or nil.
func (n *Node) Parent() Target {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.parent
}

// AddListener registers fn for events of the given type.
func (n *Node) AddListener(typ string, fn Listener) (remove func()) {
	return n.add(typ, fn, false)
}

// Once registers fn for a single delivery of the given type.
func (n *Node) Once(typ string, fn Listener) (remove func()) {
	return n.add(typ, fn, true)
}

func (n *Node) add(typ string, fn Listener, once bool) func() {
	n.mu.Lock()
	if n.listeners == nil {
		n.listeners = make(map[string][]*entry)
	}
	n.nextID++
	e := &entry{id: n.nextID, fn: fn, once: once}
	n.listeners[typ] = append(n.listeners[typ], e)
	n.mu.Unlock()

	return func() { n.removeEntry(typ, e.id) }
}

func (n *Node) removeEntry(typ string, id int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	list := n.listeners[typ]
	for i, e := range list {
		if e.id == id {
			n.listeners[typ] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// DispatchEvent delivers ev to this node's listeners and walks the parent
// chain while ev.Bubbles and propagation has not been stopped.
func (n *Node) DispatchEvent(ev *Event) bool {
	if ev.Target == nil {
		ev.Target = n
	}
	n.deliver(ev)

	if ev.Bubbles && !ev.stopped {
		if parent := n.Parent(); parent != nil {
			parent.DispatchEvent(ev)
		}
	}
	return !ev.prevented
}

func (n *Node) deliver(ev *Event) {
	n.mu.Lock()
	list := n.listeners[ev.Type]
	snapshot := make([]*entry, len(list))
	copy(snapshot, list)
	n.mu.Unlock()

	for _, e := range snapshot {
		if e.once {
			n.removeEntry(ev.Type, e.id)
		}
		e.fn(ev)
	}
}
