package overlay

import "context"

// PresentState is the tri-state answer to "is the surface on the platform's
// top layer right now". Implementations collapse every probe failure
// (unsupported platform feature, detached element, probe panic) into
// Unsupported; the Controller treats anything other than Presented as
// worst case and attempts presentation.
type PresentState int

const (
	NotPresented PresentState = iota
	Presented
	Unsupported
)

func (s PresentState) String() string {
	switch s {
	case Presented:
		return "presented"
	case Unsupported:
		return "unsupported"
	default:
		return "not-presented"
	}
}

// Presenter is the platform presentation layer for overlay surfaces.
type Presenter interface {
	// State queries the surface's current presentation state. It must not
	// fail: uncertainty is reported as Unsupported.
	State(Openable) PresentState

	// Present asks the platform to show the surface on its top layer.
	Present(Openable) error

	// Hide asks the platform to remove the surface and returns only once
	// the platform has confirmed the hide (or ctx is done). The close
	// report is deferred behind this confirmation.
	Hide(ctx context.Context, el Openable) error
}
