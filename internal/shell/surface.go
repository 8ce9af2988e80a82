// Package shell implements the GTK4/layer-shell display host. Each overlay
// surface is a layer-shell window; the presenter maps and unmaps windows on
// the GTK main loop and confirms hides off the unmap signal.
package shell

import (
	"log/slog"
	"sync"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/mcrowther/veil/internal/config"
	"github.com/mcrowther/veil/internal/overlay"
)

// Surface is a layer-shell window participating in overlay transitions.
type Surface struct {
	*overlay.Element

	cfg    *config.Config
	logger *slog.Logger
	window *gtk.Window

	mu          sync.Mutex
	mapped      bool
	unmapNotify []chan struct{}
}

// NewSurface creates a layer-shell window for an overlay surface. Must run
// on the GTK main loop.
func NewSurface(app *gtk.Application, cfg *config.Config, title, body string, logger *slog.Logger) *Surface {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Surface{
		Element: overlay.NewElement(),
		cfg:     cfg,
		logger:  logger,
	}

	s.window = gtk.NewWindow()
	s.window.SetApplication(app)
	s.window.SetDecorated(false)
	s.window.SetResizable(false)
	s.window.SetDefaultSize(cfg.Shell.Width, -1)

	layershell.InitForWindow(s.window)
	layershell.SetLayer(s.window, layershell.LayerShellLayerTop)
	layershell.SetExclusiveZone(s.window, 0)
	layershell.SetKeyboardMode(s.window, layershell.LayerShellKeyboardModeOnDemand)
	layershell.SetNamespace(s.window, "veil-overlay")

	if mon := selectMonitor(gdk.DisplayGetDefault(), cfg.Shell.Monitor, logger); mon != nil {
		layershell.SetMonitor(s.window, mon)
	}

	s.applyAnchors()
	s.buildContent(title, body)

	s.window.ConnectMap(func() {
		s.mu.Lock()
		s.mapped = true
		s.mu.Unlock()
	})
	s.window.ConnectUnmap(func() {
		s.mu.Lock()
		s.mapped = false
		waiters := s.unmapNotify
		s.unmapNotify = nil
		s.mu.Unlock()
		for _, ch := range waiters {
			close(ch)
		}
		s.logger.Debug("surface unmapped")
	})

	return s
}

func (s *Surface) buildContent(title, body string) {
	box := gtk.NewBox(gtk.OrientationVertical, 4)
	box.SetMarginTop(8)
	box.SetMarginBottom(8)
	box.SetMarginStart(12)
	box.SetMarginEnd(12)
	box.AddCSSClass("veil-surface")
	box.AddCSSClass(colorSchemeClass())

	titleLbl := gtk.NewLabel(title)
	titleLbl.AddCSSClass("title-3")
	titleLbl.SetXAlign(0)
	box.Append(titleLbl)

	bodyLbl := gtk.NewLabel(body)
	bodyLbl.SetWrap(true)
	bodyLbl.SetXAlign(0)
	box.Append(bodyLbl)

	s.window.SetChild(box)
}

// applyAnchors sets the layer-shell anchors and margins from config.
func (s *Surface) applyAnchors() {
	w := s.window
	offsetX := s.cfg.Shell.OffsetX
	offsetY := s.cfg.Shell.OffsetY

	layershell.SetAnchor(w, layershell.LayerShellEdgeTop, false)
	layershell.SetAnchor(w, layershell.LayerShellEdgeBottom, false)
	layershell.SetAnchor(w, layershell.LayerShellEdgeLeft, false)
	layershell.SetAnchor(w, layershell.LayerShellEdgeRight, false)

	switch s.cfg.Shell.Position {
	case "top-right":
		layershell.SetAnchor(w, layershell.LayerShellEdgeTop, true)
		layershell.SetAnchor(w, layershell.LayerShellEdgeRight, true)
		layershell.SetMargin(w, layershell.LayerShellEdgeTop, offsetY)
		layershell.SetMargin(w, layershell.LayerShellEdgeRight, offsetX)
	case "top-left":
		layershell.SetAnchor(w, layershell.LayerShellEdgeTop, true)
		layershell.SetAnchor(w, layershell.LayerShellEdgeLeft, true)
		layershell.SetMargin(w, layershell.LayerShellEdgeTop, offsetY)
		layershell.SetMargin(w, layershell.LayerShellEdgeLeft, offsetX)
	case "bottom-right":
		layershell.SetAnchor(w, layershell.LayerShellEdgeBottom, true)
		layershell.SetAnchor(w, layershell.LayerShellEdgeRight, true)
		layershell.SetMargin(w, layershell.LayerShellEdgeBottom, offsetY)
		layershell.SetMargin(w, layershell.LayerShellEdgeRight, offsetX)
	case "bottom-left":
		layershell.SetAnchor(w, layershell.LayerShellEdgeBottom, true)
		layershell.SetAnchor(w, layershell.LayerShellEdgeLeft, true)
		layershell.SetMargin(w, layershell.LayerShellEdgeBottom, offsetY)
		layershell.SetMargin(w, layershell.LayerShellEdgeLeft, offsetX)
	case "center":
		// No anchors: the compositor centers unanchored layer surfaces.
	}
}

// Mapped reports whether the compositor currently maps the window.
func (s *Surface) Mapped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapped
}

// notifyUnmap returns a channel closed on the next unmap. Closed
// immediately when the window is already unmapped.
func (s *Surface) notifyUnmap() <-chan struct{} {
	ch := make(chan struct{})
	s.mu.Lock()
	if !s.mapped {
		s.mu.Unlock()
		close(ch)
		return ch
	}
	s.unmapNotify = append(s.unmapNotify, ch)
	s.mu.Unlock()
	return ch
}

// colorSchemeClass mirrors the desktop's preferred color scheme.
func colorSchemeClass() string {
	if adw.StyleManagerGetDefault().Dark() {
		return "dark"
	}
	return "light"
}
