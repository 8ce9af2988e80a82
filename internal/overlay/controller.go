package overlay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcrowther/veil/internal/event"
)

// Options configures a Controller. Presenter and Frames are required; the
// rest default to sensible in-process implementations.
type Options struct {
	Presenter  Presenter
	Positioner Positioner
	Focus      FocusScope
	Waiter     TransitionWaiter
	Delays     *DelayRegistry
	Frames     FrameScheduler
	Logger     *slog.Logger

	// Settle-frame counts for the attach and focus phases. Empirical
	// tunables, not contracts; zero selects the defaults (1 and 2).
	AttachSettleFrames int
	FocusSettleFrames  int
}

// Controller runs the open/close transition pipeline for one overlay host.
// It owns no state beyond the per-run bookkeeping: the host's open flag is
// the single source of truth, and every suspension point re-checks it.
type Controller struct {
	host       Host
	presenter  Presenter
	positioner Positioner
	focus      FocusScope
	waiter     TransitionWaiter
	delays     *DelayRegistry
	frames     FrameScheduler
	logger     *slog.Logger

	attachSettleFrames int
	focusSettleFrames  int

	mu          sync.Mutex
	generation  uint64
	focusTarget Focusable
}

// NewController creates a Controller for host.
func NewController(host Host, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	waiter := opts.Waiter
	if waiter == nil {
		waiter = SettleWaiter{}
	}
	delays := opts.Delays
	if delays == nil {
		delays = NewDelayRegistry()
	}
	attach := opts.AttachSettleFrames
	if attach <= 0 {
		attach = 1
	}
	focusFrames := opts.FocusSettleFrames
	if focusFrames <= 0 {
		focusFrames = 2
	}

	return &Controller{
		host:               host,
		presenter:          opts.Presenter,
		positioner:         opts.Positioner,
		focus:              opts.Focus,
		waiter:             waiter,
		delays:             delays,
		frames:             opts.Frames,
		logger:             logger,
		attachSettleFrames: attach,
		focusSettleFrames:  focusFrames,
	}
}

// runToken snapshots a pipeline run: the generation at entry and the desired
// state it is driving toward. Live is the single staleness primitive every
// suspension point consults.
type runToken struct {
	c      *Controller
	gen    uint64
	target bool
}

// Live reports whether this run is still the current one and the host still
// wants the state the run was started for.
func (t runToken) Live() bool {
	t.c.mu.Lock()
	gen := t.c.generation
	t.c.mu.Unlock()
	return gen == t.gen && t.c.host.Open() == t.target
}

func (c *Controller) begin(target bool) runToken {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	if target {
		// Focus candidate is computed once per opening transition.
		c.focusTarget = nil
	}
	c.mu.Unlock()
	return runToken{c: c, gen: gen, target: target}
}

// ManageOpen runs the transition pipeline toward the host's current open
// state. Call it whenever the open flag changes. Overlapping calls are safe:
// a newer call supersedes the in-flight run, which stops silently at its
// next checkpoint. Divergence is the expected exit path, never an error.
func (c *Controller) ManageOpen(ctx context.Context) {
	target := c.host.Open()
	tok := c.begin(target)
	log := c.logger.With("overlay", c.host.ID(), "target", target, "run", tok.gen)
	log.Debug("transition run started")

	if !c.delayPhase(ctx, tok, log) {
		log.Debug("run superseded during delay phase")
		return
	}
	if !c.attachPhase(ctx, tok, log) {
		log.Debug("run superseded during attach phase")
		return
	}
	c.transitionPhase(ctx, tok, log)
	c.focusPhase(ctx, tok)
	log.Debug("transition run finished")
}

// delayPhase optionally waits before opening. A close target cancels any
// pending open timer and proceeds; a cancelled open reverts the premature
// state flip, the only place the pipeline writes the host's open flag.
func (c *Controller) delayPhase(ctx context.Context, tok runToken, log *slog.Logger) bool {
	if !tok.target || !tok.Live() {
		c.delays.Cancel(c.host.ID())
		return tok.Live()
	}

	d := c.host.OpenDelay()
	if d <= 0 {
		return true
	}

	if cancelled := c.delays.OpenTimer(ctx, c.host.ID(), d); cancelled {
		c.host.SetOpen(!tok.target)
		log.Debug("pending open cancelled before delay elapsed")
		return false
	}
	return tok.Live()
}

// attachPhase makes sure the platform is actually presenting the surface
// before transition work begins, then lets layout settle so subsequent
// reads are accurate.
func (c *Controller) attachPhase(ctx context.Context, tok runToken, log *slog.Logger) bool {
	if err := c.frames.Next(ctx); err != nil {
		return false
	}

	surface := c.primary()
	state := c.presenter.State(surface)
	if tok.target && tok.Live() && state != Presented && surface.Connected() {
		if err := c.presenter.Present(surface); err != nil {
			log.Warn("platform presentation failed", "state", state, "error", err)
		}
		if c.positioner != nil {
			c.positioner.Reposition(surface)
		}
	}

	for i := 0; i < c.attachSettleFrames; i++ {
		if err := c.frames.Next(ctx); err != nil {
			return false
		}
	}
	return tok.Live()
}

// transitionPhase flips every participating element and waits for their
// visual transitions. All start callbacks run synchronously here, before any
// element's completion can fire; completions race each other freely.
func (c *Controller) transitionPhase(ctx context.Context, tok runToken, log *slog.Logger) {
	els := c.host.Openables()
	if len(els) == 0 {
		els = []Openable{c.host}
	}

	finishes := make([]<-chan struct{}, len(els))
	for i, el := range els {
		i, el := i, el
		finishes[i] = c.waiter.Watch(el, func() { c.transitionStart(tok, i, el) })
	}

	var wg sync.WaitGroup
	for i, el := range els {
		wg.Add(1)
		go func(i int, el Openable, finish <-chan struct{}) {
			defer wg.Done()
			select {
			case <-finish:
			case <-ctx.Done():
				return
			}
			c.transitionEnd(ctx, tok, i, el, log)
		}(i, el, finishes[i])
	}
	wg.Wait()
}

// transitionStart runs before the element's transition begins. The flip it
// performs stands even if the run is later superseded; idempotence of later
// runs restores consistency.
func (c *Controller) transitionStart(tok runToken, index int, el Openable) {
	el.SetOpen(tok.target)

	if index == 0 {
		detail := BeforeToggleDetail{OldState: StateOpen, NewState: StateClosed}
		if tok.target {
			detail = BeforeToggleDetail{OldState: StateClosed, NewState: StateOpen}
		}
		c.host.DispatchEvent(&event.Event{
			Type:       event.TypeBeforeToggle,
			Bubbles:    true,
			Composed:   true,
			Cancelable: true,
			Detail:     detail,
		})
	}

	if tok.target {
		c.mu.Lock()
		missing := c.focusTarget == nil
		c.mu.Unlock()
		if missing {
			if candidate := c.findFocusCandidate(el); candidate != nil {
				c.mu.Lock()
				if c.focusTarget == nil {
					c.focusTarget = candidate
				}
				c.mu.Unlock()
			}
		}
	}
}

// transitionEnd runs once the element's transitions have settled. On close
// it hides the surface through the platform first and only reports after
// the platform has confirmed.
func (c *Controller) transitionEnd(ctx context.Context, tok runToken, index int, el Openable, log *slog.Logger) {
	if !tok.Live() {
		return
	}

	if !tok.target {
		// Unsupported probes assume the worst case: still presented.
		surface := c.primary()
		if c.presenter.State(surface) != NotPresented {
			if err := c.presenter.Hide(ctx, surface); err != nil {
				log.Warn("platform hide failed", "error", err)
			}
			if !tok.Live() {
				return
			}
		}
	}

	c.report(ctx, tok, index, el)
}

// report is the externally visible announcement of the state change. One
// frame passes first so listeners read fully settled state.
func (c *Controller) report(ctx context.Context, tok runToken, index int, el Openable) {
	if err := c.frames.Next(ctx); err != nil {
		return
	}
	if !tok.Live() {
		return
	}

	typ := event.TypeClosed
	if tok.target {
		typ = event.TypeOpened
	}
	trigger := c.host.Trigger()
	virtual := trigger == nil || trigger.Virtual()
	detail := ToggleDetail{Interaction: c.host.Interaction()}

	if index > 0 {
		// Nested surfaces have no trigger of their own; only the local
		// detail-carrying event fires.
		el.DispatchEvent(&event.Event{Type: typ, Detail: detail})
		return
	}

	// Local mirror first, then the root announcement, then the trigger.
	el.DispatchEvent(&event.Event{Type: typ})
	c.host.DispatchEvent(&event.Event{Type: typ, Bubbles: !virtual, Composed: !virtual})
	if !virtual {
		if target := trigger.Events(); target != nil {
			target.DispatchEvent(&event.Event{Type: typ, Bubbles: true, Composed: true, Detail: detail})
		}
	}
}

// focusPhase routes focus after the transition settles: into the overlay on
// open, back to the trigger on close. Hover overlays never steal focus.
func (c *Controller) focusPhase(ctx context.Context, tok runToken) {
	if !c.host.ReceivesFocus() || c.host.Interaction() == InteractionHover || c.focus == nil {
		return
	}

	for i := 0; i < c.focusSettleFrames; i++ {
		if err := c.frames.Next(ctx); err != nil {
			return
		}
	}

	if !tok.target && tok.Live() {
		trigger := c.host.Trigger()
		if trigger == nil || trigger.Virtual() {
			return
		}
		// Never steal focus the user has since moved elsewhere.
		active := c.focus.Active()
		if active == nil || !c.focus.Contains(c.primary(), active) {
			return
		}
		trigger.Focus()
		return
	}

	c.mu.Lock()
	candidate := c.focusTarget
	c.mu.Unlock()
	if candidate != nil {
		candidate.Focus()
	}
}

func (c *Controller) findFocusCandidate(el Openable) Focusable {
	if c.focus == nil {
		return nil
	}
	if f := c.focus.FirstFocusable(el); f != nil {
		return f
	}
	if slotted, ok := el.(Slotted); ok {
		for _, slot := range slotted.Slots() {
			if f := c.focus.FirstFocusableInSlot(el, slot); f != nil {
				return f
			}
		}
	}
	return nil
}

// primary returns the primary surface, falling back to the host itself when
// no participating elements are declared.
func (c *Controller) primary() Openable {
	if els := c.host.Openables(); len(els) > 0 {
		return els[0]
	}
	return c.host
}
