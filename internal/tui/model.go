// Package tui provides the BubbleTea-based terminal demo host. It composites
// overlay surfaces into the frame the way a compositor would stack real
// windows, which makes transition behavior observable without a display
// server.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/mcrowther/veil/internal/config"
	"github.com/mcrowther/veil/internal/event"
	"github.com/mcrowther/veil/internal/overlay"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	openStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	selStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// demo is one overlay wired to keyboard interaction.
type demo struct {
	name     string
	desc     string
	content  []string // rendered body per surface
	host     *overlay.Root
	surfaces []*overlay.Element
	trig     *overlay.ElementTrigger
	ctl      *overlay.Controller
}

func (d *demo) toggle(ctx context.Context) {
	d.host.SetOpen(!d.host.Open())
	go d.ctl.ManageOpen(ctx)
}

func (d *demo) close(ctx context.Context) {
	if !d.host.Open() {
		return
	}
	d.host.SetOpen(false)
	go d.ctl.ManageOpen(ctx)
}

// eventMsg carries one observed lifecycle event into the update loop.
type eventMsg struct {
	line string
}

// configMsg delivers a reloaded configuration.
type configMsg struct {
	cfg *config.Config
}

type logEntry struct {
	at   time.Time
	line string
}

// Model is the main TUI model.
type Model struct {
	cfg  *config.Config
	keys KeyMap
	help help.Model

	presenter *TermPresenter
	ring      *FocusRing
	frames    *overlay.TickScheduler

	demos  []*demo
	cursor int

	log     []logEntry
	events  chan string
	reloads <-chan *config.Config

	width    int
	height   int
	showHelp bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewModel creates the demo model from configuration.
func NewModel(cfg *config.Config, logger *slog.Logger) *Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		cfg:       cfg,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		presenter: NewTermPresenter(),
		ring:      NewFocusRing(),
		frames:    overlay.NewTickScheduler(cfg.Timing.FrameInterval.Duration()),
		events:    make(chan string, 64),
		ctx:       ctx,
		cancel:    cancel,
	}
	m.frames.Start()

	m.demos = []*demo{
		m.newDemo("popover", "click-toggled panel", overlay.InteractionClick, 0, "Fresh commits", "Review queue"),
		m.newHoverDemo("tooltip", "hover hint after delay", cfg.Timing.HoverDelay.Duration()),
		m.newDialogDemo(),
		m.newMenuDemo(),
	}
	for _, d := range m.demos {
		d.ctl = m.controller(d.host, logger.With("demo", d.name))
		m.observe(d, logger)
	}
	return m
}

func (m *Model) controller(host *overlay.Root, logger *slog.Logger) *overlay.Controller {
	var focus overlay.FocusScope
	if m.cfg.Focus.Enabled {
		focus = m.ring
	}
	return overlay.NewController(host, overlay.Options{
		Presenter:          m.presenter,
		Focus:              focus,
		Waiter:             overlay.SettleWaiter{Default: m.cfg.Timing.Settle.Duration()},
		Frames:             m.frames,
		Logger:             logger,
		AttachSettleFrames: m.cfg.Timing.AttachSettleFrames,
		FocusSettleFrames:  m.cfg.Timing.FocusSettleFrames,
	})
}

func (m *Model) newDemo(name, desc string, kind overlay.Interaction, delay time.Duration, lines ...string) *demo {
	host := overlay.NewRoot(kind)
	host.SetOpenDelay(delay)

	surf := overlay.NewElement()
	surf.SetTransitionDuration(m.cfg.Timing.Settle.Duration())
	host.SetOpenables(surf)

	trig := overlay.NewElementTrigger()
	host.SetTrigger(trig)

	m.ring.Add(surf, name+" panel")

	return &demo{
		name:     name,
		desc:     desc,
		content:  []string{strings.Join(lines, "\n")},
		host:     host,
		surfaces: []*overlay.Element{surf},
		trig:     trig,
	}
}

func (m *Model) newHoverDemo(name, desc string, delay time.Duration) *demo {
	d := m.newDemo(name, desc, overlay.InteractionHover, delay, "Opens after "+delay.String())
	return d
}

// newDialogDemo exercises slot-based focus lookup: the dialog body holds no
// directly focusable child, only the footer slot does.
func (m *Model) newDialogDemo() *demo {
	host := overlay.NewRoot(overlay.InteractionModal)

	surf := overlay.NewElement()
	surf.SetTransitionDuration(m.cfg.Timing.Settle.Duration())
	surf.SetSlots("footer")
	host.SetOpenables(surf)

	trig := overlay.NewElementTrigger()
	host.SetTrigger(trig)

	m.ring.AddSlot(surf, "footer", "dialog confirm button")

	return &demo{
		name:     "dialog",
		desc:     "modal with footer focus",
		content:  []string{"Discard changes?\n\n        [ Confirm ]"},
		host:     host,
		surfaces: []*overlay.Element{surf},
		trig:     trig,
	}
}

// newMenuDemo opens a menu and its pinned submenu as one transition, the
// nested-surface case where only the primary drives the shared events.
func (m *Model) newMenuDemo() *demo {
	host := overlay.NewRoot(overlay.InteractionClick)

	menu := overlay.NewElement()
	menu.SetTransitionDuration(m.cfg.Timing.Settle.Duration())
	sub := overlay.NewElement()
	sub.SetTransitionDuration(m.cfg.Timing.Settle.Duration())
	host.SetOpenables(menu, sub)

	trig := overlay.NewElementTrigger()
	host.SetTrigger(trig)

	m.ring.Add(menu, "menu: first entry")
	m.ring.Add(sub, "submenu: first entry")

	return &demo{
		name:     "menu",
		desc:     "menu plus pinned submenu",
		content:  []string{"Open…\nSave\nExport ▸", "PNG\nSVG"},
		host:     host,
		surfaces: []*overlay.Element{menu, sub},
		trig:     trig,
	}
}

// observe wires lifecycle listeners into the update loop's event feed.
func (m *Model) observe(d *demo, logger *slog.Logger) {
	push := func(line string) {
		select {
		case m.events <- line:
		default:
			logger.Debug("event feed full, dropping", "line", line)
		}
	}

	d.host.AddListener(event.TypeBeforeToggle, func(ev *event.Event) {
		detail := ev.Detail.(overlay.BeforeToggleDetail)
		push(fmt.Sprintf("%s: beforetoggle %s → %s", d.name, detail.OldState, detail.NewState))
	})
	d.host.AddListener(event.TypeOpened, func(*event.Event) {
		push(d.name + ": " + event.TypeOpened)
	})
	d.host.AddListener(event.TypeClosed, func(*event.Event) {
		push(d.name + ": " + event.TypeClosed)
	})
	d.trig.AddListener(event.TypeOpened, func(ev *event.Event) {
		detail := ev.Detail.(overlay.ToggleDetail)
		push(fmt.Sprintf("%s: trigger notified (%s)", d.name, detail.Interaction))
	})
	d.trig.OnFocus(func() {
		push(d.name + ": focus returned to trigger")
	})
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return eventMsg{line: <-m.events}
	}
}

func (m *Model) waitForReload() tea.Cmd {
	if m.reloads == nil {
		return nil
	}
	return func() tea.Msg {
		return configMsg{cfg: <-m.reloads}
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.waitForReload())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case eventMsg:
		m.log = append(m.log, logEntry{at: time.Now(), line: msg.line})
		if len(m.log) > 50 {
			m.log = m.log[len(m.log)-50:]
		}
		return m, m.waitForEvent()

	case configMsg:
		m.applyConfig(msg.cfg)
		return m, m.waitForReload()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			m.frames.Stop()
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
			m.help.ShowAll = m.showHelp
			return m, nil

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.demos)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, m.keys.Toggle):
			m.demos[m.cursor].toggle(m.ctx)
			return m, nil

		case key.Matches(msg, m.keys.Hover):
			d := m.demos[m.cursor]
			if d.host.Interaction() == overlay.InteractionHover {
				d.toggle(m.ctx)
			}
			return m, nil

		case key.Matches(msg, m.keys.Close):
			for _, d := range m.demos {
				d.close(m.ctx)
			}
			return m, nil
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("veil overlay demo"))
	b.WriteString("\n\n")

	for i, d := range m.demos {
		marker := dimStyle.Render("◌")
		if d.host.Open() {
			marker = openStyle.Render("●")
		}
		line := fmt.Sprintf("%s %-8s %s", marker, d.name, dimStyle.Render(d.desc))
		if i == m.cursor {
			line = selStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStage())
	b.WriteString("\n")
	b.WriteString(m.renderLog())

	if active := m.ring.ActiveLabel(); active != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render("focus: " + active))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderStage composites every presented surface.
func (m *Model) renderStage() string {
	var boxes []string
	for _, d := range m.demos {
		for i, surf := range d.surfaces {
			if !m.presenter.Visible(surf) {
				continue
			}
			body := d.name
			if i < len(d.content) {
				body = d.content[i]
			}
			boxes = append(boxes, boxStyle.Render(body))
		}
	}
	if len(boxes) == 0 {
		return dimStyle.Render("  (no overlays presented)")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func (m *Model) renderLog() string {
	if len(m.log) == 0 {
		return dimStyle.Render("  (no events yet)")
	}
	start := 0
	if len(m.log) > 8 {
		start = len(m.log) - 8
	}
	var lines []string
	for _, e := range m.log[start:] {
		lines = append(lines, fmt.Sprintf("  %s %s", e.line, dimStyle.Render(humanize.Time(e.at))))
	}
	return strings.Join(lines, "\n")
}

// applyConfig folds a reloaded configuration into the running demos. Only
// the live-tunable timing values take effect without a restart.
func (m *Model) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.cfg = cfg
	for _, d := range m.demos {
		if d.host.Interaction() == overlay.InteractionHover {
			d.host.SetOpenDelay(cfg.Timing.HoverDelay.Duration())
		}
		for _, surf := range d.surfaces {
			surf.SetTransitionDuration(cfg.Timing.Settle.Duration())
		}
	}
	m.log = append(m.log, logEntry{at: time.Now(), line: "config reloaded"})
}

// RunOptions configures the demo TUI.
type RunOptions struct {
	Config *config.Config
	Logger *slog.Logger

	// ConfigReloads optionally feeds live config updates, typically from a
	// file watcher.
	ConfigReloads <-chan *config.Config
}

// Run starts the demo TUI and blocks until it exits.
func Run(opts RunOptions) error {
	m := NewModel(opts.Config, opts.Logger)
	m.reloads = opts.ConfigReloads
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
