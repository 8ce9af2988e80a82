package shell

import (
	"context"
	"fmt"

	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/mcrowther/veil/internal/overlay"
)

// Presenter drives Surface windows through the GTK main loop. State probes
// report Unsupported for openables that are not layer-shell surfaces, which
// the pipeline treats as worst-case.
type Presenter struct{}

// NewPresenter creates the GTK presenter.
func NewPresenter() *Presenter {
	return &Presenter{}
}

func (p *Presenter) State(el overlay.Openable) overlay.PresentState {
	s, ok := el.(*Surface)
	if !ok {
		return overlay.Unsupported
	}
	if s.Mapped() {
		return overlay.Presented
	}
	return overlay.NotPresented
}

func (p *Presenter) Present(el overlay.Openable) error {
	s, ok := el.(*Surface)
	if !ok {
		return fmt.Errorf("not a shell surface: %T", el)
	}
	glib.IdleAdd(func() {
		s.window.Present()
	})
	return nil
}

// Hide withdraws the window and returns once the compositor has unmapped
// it, or the context ends.
func (p *Presenter) Hide(ctx context.Context, el overlay.Openable) error {
	s, ok := el.(*Surface)
	if !ok {
		return fmt.Errorf("not a shell surface: %T", el)
	}

	unmapped := s.notifyUnmap()
	glib.IdleAdd(func() {
		s.window.SetVisible(false)
	})

	select {
	case <-unmapped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Positioner reapplies layer-shell anchors when the pipeline asks for a
// reposition.
type Positioner struct{}

func (Positioner) Reposition(el overlay.Openable) {
	s, ok := el.(*Surface)
	if !ok {
		return
	}
	glib.IdleAdd(func() {
		s.applyAnchors()
	})
}

// FrameClock waits for the next GTK main-loop iteration, the shell's frame
// boundary.
type FrameClock struct{}

func (FrameClock) Next(ctx context.Context) error {
	ch := make(chan struct{})
	glib.IdleAdd(func() {
		close(ch)
	})
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
