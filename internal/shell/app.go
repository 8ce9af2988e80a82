package shell

import (
	"context"
	"log/slog"
	"os"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/mcrowther/veil/internal/config"
	"github.com/mcrowther/veil/internal/overlay"
)

const appID = "io.github.mcrowther.veil"

// widgetFocusable adapts a GTK widget to the pipeline's focus interface.
// Grabs run on the main loop.
type widgetFocusable struct {
	widget gtk.Widgetter
}

func (f widgetFocusable) Focus() {
	glib.IdleAdd(func() {
		gtk.BaseWidget(f.widget).GrabFocus()
	})
}

// shellFocus resolves focus candidates inside surfaces. The compositor owns
// global focus, so Active is unknown and close-time restoration is left to
// the compositor.
type shellFocus struct{}

func (shellFocus) FirstFocusable(el overlay.Openable) overlay.Focusable {
	s, ok := el.(*Surface)
	if !ok {
		return nil
	}
	child := s.window.Child()
	if child == nil {
		return nil
	}
	return widgetFocusable{widget: child}
}

func (shellFocus) FirstFocusableInSlot(overlay.Openable, string) overlay.Focusable { return nil }
func (shellFocus) Active() overlay.Focusable                                       { return nil }
func (shellFocus) Contains(overlay.Openable, overlay.Focusable) bool               { return false }

// demoOverlay bundles a host, its surface and its controller.
type demoOverlay struct {
	host *overlay.Root
	ctl  *overlay.Controller
}

func (d *demoOverlay) toggle(ctx context.Context) {
	d.host.SetOpen(!d.host.Open())
	go d.ctl.ManageOpen(ctx)
}

// Run starts the layer-shell demo application and blocks until it exits.
func Run(cfg *config.Config, logger *slog.Logger) int {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := adw.NewApplication(appID, 0)

	app.ConnectActivate(func() {
		presenter := NewPresenter()

		newOverlay := func(kind overlay.Interaction, title, body string) *demoOverlay {
			surf := NewSurface(&app.Application, cfg, title, body, logger)
			surf.SetTransitionDuration(cfg.Timing.Settle.Duration())

			host := overlay.NewRoot(kind)
			host.SetOpenables(surf)
			host.SetTrigger(overlay.NewElementTrigger())
			if kind == overlay.InteractionHover {
				host.SetOpenDelay(cfg.Timing.HoverDelay.Duration())
			}

			var focus overlay.FocusScope
			if cfg.Focus.Enabled {
				focus = shellFocus{}
			}
			ctl := overlay.NewController(host, overlay.Options{
				Presenter:          presenter,
				Positioner:         Positioner{},
				Focus:              focus,
				Waiter:             overlay.SettleWaiter{Default: cfg.Timing.Settle.Duration()},
				Frames:             FrameClock{},
				Logger:             logger.With("host", "shell"),
				AttachSettleFrames: cfg.Timing.AttachSettleFrames,
				FocusSettleFrames:  cfg.Timing.FocusSettleFrames,
			})
			return &demoOverlay{host: host, ctl: ctl}
		}

		popover := newOverlay(overlay.InteractionClick, "Popover", "A click-toggled layer surface.")
		tooltip := newOverlay(overlay.InteractionHover, "Tooltip", "Opens after the configured hover delay.")

		// Control window with toggle buttons.
		win := gtk.NewApplicationWindow(&app.Application)
		win.SetTitle("veil shell demo")
		win.SetDefaultSize(320, -1)

		box := gtk.NewBox(gtk.OrientationVertical, 8)
		box.SetMarginTop(12)
		box.SetMarginBottom(12)
		box.SetMarginStart(12)
		box.SetMarginEnd(12)

		popBtn := gtk.NewButtonWithLabel("Toggle popover")
		popBtn.ConnectClicked(func() { popover.toggle(ctx) })
		box.Append(popBtn)

		tipBtn := gtk.NewButtonWithLabel("Hover tooltip")
		motion := gtk.NewEventControllerMotion()
		motion.ConnectEnter(func(x, y float64) {
			if !tooltip.host.Open() {
				tooltip.toggle(ctx)
			}
		})
		motion.ConnectLeave(func() {
			if tooltip.host.Open() {
				tooltip.toggle(ctx)
			}
		})
		tipBtn.AddController(motion)
		box.Append(tipBtn)

		win.SetChild(box)
		win.Present()
	})

	return app.Run(os.Args)
}
