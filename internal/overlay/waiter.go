package overlay

import "time"

// Animated lets openables advertise how long their visual transition runs.
// Elements that do not implement it settle after the waiter's default.
type Animated interface {
	TransitionDuration() time.Duration
}

// TransitionWaiter couples an element's open-flag flip to the completion of
// its visual transition. Watch must invoke start synchronously before
// returning, and the returned channel must be closed exactly once after all
// transitions on el (and its watched descendants) have settled, or
// immediately when nothing animates.
type TransitionWaiter interface {
	Watch(el Openable, start func()) <-chan struct{}
}

// SettleWaiter is a duration-based TransitionWaiter for hosts without a
// native transition-end signal: the element settles after its advertised
// transition duration, falling back to Default.
type SettleWaiter struct {
	Default time.Duration
}

func (w SettleWaiter) Watch(el Openable, start func()) <-chan struct{} {
	start()

	d := w.Default
	if a, ok := el.(Animated); ok {
		d = a.TransitionDuration()
	}

	done := make(chan struct{})
	if d <= 0 {
		close(done)
		return done
	}
	time.AfterFunc(d, func() { close(done) })
	return done
}
