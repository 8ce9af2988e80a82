package shell

import (
	"log/slog"
	"unsafe"

	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
)

// selectMonitor resolves the configured monitor.
// Config values:
// - 0: current monitor (returns nil, use compositor default)
// - 1+: specific monitor (1-indexed)
//
// Falls back to the first available monitor when the configured one is
// missing.
func selectMonitor(display *gdk.Display, monitorNum int, logger *slog.Logger) *gdk.Monitor {
	if display == nil || monitorNum <= 0 {
		return nil
	}

	monitors := display.Monitors()
	if monitors == nil {
		logger.Warn("no monitors list available")
		return nil
	}

	// Convert to 0-indexed
	index := uint(monitorNum - 1)

	if index >= monitors.NItems() {
		logger.Warn("configured monitor not available, using first",
			"configured", monitorNum,
			"available", monitors.NItems(),
		)
		index = 0
		if monitors.NItems() == 0 {
			return nil
		}
	}

	obj := monitors.Item(index)
	if obj == nil {
		return nil
	}

	return wrapMonitor(obj)
}

// wrapMonitor wraps a coreglib.Object as a gdk.Monitor.
// This is necessary because gotk4 doesn't expose the wrapMonitor function.
func wrapMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	// The gdk.Monitor struct embeds a *coreglib.Object, so we can create
	// one by casting the native pointer. This is how gotk4 does it internally.
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	m := &monitor{Object: obj}
	return (*gdk.Monitor)(unsafe.Pointer(m))
}
