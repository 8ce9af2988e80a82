package tui

import (
	"sync"

	"github.com/mcrowther/veil/internal/overlay"
)

// Item is a focusable target inside a surface or trigger row.
type Item struct {
	ring  *FocusRing
	label string
}

func (i *Item) Focus() { i.ring.setActive(i) }

// Label names the item for rendering.
func (i *Item) Label() string { return i.label }

// FocusRing is the terminal focus model: one active item at a time, with
// each item owned by the surface it lives in.
type FocusRing struct {
	mu     sync.Mutex
	active *Item
	owners map[*Item]overlay.Openable
	first  map[overlay.Openable]*Item
	slots  map[overlay.Openable]map[string]*Item
}

// NewFocusRing creates an empty ring.
func NewFocusRing() *FocusRing {
	return &FocusRing{
		owners: make(map[*Item]overlay.Openable),
		first:  make(map[overlay.Openable]*Item),
		slots:  make(map[overlay.Openable]map[string]*Item),
	}
}

// Add registers a focusable item inside el and returns it.
func (r *FocusRing) Add(el overlay.Openable, label string) *Item {
	it := &Item{ring: r, label: label}
	r.mu.Lock()
	r.owners[it] = el
	if r.first[el] == nil {
		r.first[el] = it
	}
	r.mu.Unlock()
	return it
}

// AddSlot registers a focusable item inside el's named slot.
func (r *FocusRing) AddSlot(el overlay.Openable, slot, label string) *Item {
	it := &Item{ring: r, label: label}
	r.mu.Lock()
	r.owners[it] = el
	if r.slots[el] == nil {
		r.slots[el] = make(map[string]*Item)
	}
	r.slots[el][slot] = it
	r.mu.Unlock()
	return it
}

func (r *FocusRing) setActive(it *Item) {
	r.mu.Lock()
	r.active = it
	r.mu.Unlock()
}

// ActiveLabel names the currently focused item, or "" when nothing is
// focused.
func (r *FocusRing) ActiveLabel() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return ""
	}
	return r.active.label
}

func (r *FocusRing) FirstFocusable(el overlay.Openable) overlay.Focusable {
	r.mu.Lock()
	defer r.mu.Unlock()
	if it := r.first[el]; it != nil {
		return it
	}
	return nil
}

func (r *FocusRing) FirstFocusableInSlot(el overlay.Openable, slot string) overlay.Focusable {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.slots[el]; m != nil {
		if it := m[slot]; it != nil {
			return it
		}
	}
	return nil
}

func (r *FocusRing) Active() overlay.Focusable {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		return nil
	}
	return r.active
}

func (r *FocusRing) Contains(el overlay.Openable, f overlay.Focusable) bool {
	it, ok := f.(*Item)
	if !ok {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owners[it] == el
}
