package overlay

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcrowther/veil/internal/event"
)

// recorder collects ordered labels from callbacks and event listeners.
type recorder struct {
	mu     sync.Mutex
	labels []string
}

func (r *recorder) add(label string) {
	r.mu.Lock()
	r.labels = append(r.labels, label)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.labels))
	copy(out, r.labels)
	return out
}

func (r *recorder) index(label string) int {
	for i, l := range r.list() {
		if l == label {
			return i
		}
	}
	return -1
}

func (r *recorder) has(label string) bool { return r.index(label) >= 0 }

// immediateFrames makes every frame boundary a no-op.
type immediateFrames struct{}

func (immediateFrames) Next(context.Context) error { return nil }

// scriptedWaiter holds each element's finish channel until released.
type scriptedWaiter struct {
	mu    sync.Mutex
	gates map[Openable]chan struct{}
}

func newScriptedWaiter() *scriptedWaiter {
	return &scriptedWaiter{gates: make(map[Openable]chan struct{})}
}

func (w *scriptedWaiter) Watch(el Openable, start func()) <-chan struct{} {
	start()
	w.mu.Lock()
	defer w.mu.Unlock()
	ch, ok := w.gates[el]
	if !ok {
		ch = make(chan struct{})
		w.gates[el] = ch
	}
	return ch
}

func (w *scriptedWaiter) release(el Openable) {
	w.mu.Lock()
	ch, ok := w.gates[el]
	delete(w.gates, el)
	w.mu.Unlock()
	if ok {
		close(ch)
	}
}

type fakePresenter struct {
	mu        sync.Mutex
	presented map[Openable]bool
	hideGate  chan struct{}
	rec       *recorder
}

func newFakePresenter(rec *recorder) *fakePresenter {
	return &fakePresenter{presented: make(map[Openable]bool), rec: rec}
}

func (p *fakePresenter) State(el Openable) PresentState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.presented[el] {
		return Presented
	}
	return NotPresented
}

func (p *fakePresenter) Present(el Openable) error {
	p.mu.Lock()
	p.presented[el] = true
	p.mu.Unlock()
	p.rec.add("present")
	return nil
}

func (p *fakePresenter) Hide(ctx context.Context, el Openable) error {
	p.rec.add("hide-requested")
	p.mu.Lock()
	gate := p.hideGate
	p.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	p.presented[el] = false
	p.mu.Unlock()
	p.rec.add("hide-confirmed")
	return nil
}

type fakePositioner struct{ rec *recorder }

func (p fakePositioner) Reposition(Openable) { p.rec.add("reposition") }

type fakeFocus struct {
	mu        sync.Mutex
	first     Focusable
	slotFirst Focusable
	active    Focusable
	inside    bool
}

func (f *fakeFocus) FirstFocusable(Openable) Focusable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.first
}

func (f *fakeFocus) FirstFocusableInSlot(Openable, string) Focusable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slotFirst
}

func (f *fakeFocus) Active() Focusable {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeFocus) Contains(Openable, Focusable) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inside
}

type fakeFocusable struct {
	mu      sync.Mutex
	focused bool
}

func (f *fakeFocusable) Focus() {
	f.mu.Lock()
	f.focused = true
	f.mu.Unlock()
}

func (f *fakeFocusable) Focused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focused
}

// fixture wires a host with one separate primary surface and a real trigger.
type fixture struct {
	host   *Root
	surf   *Element
	trig   *ElementTrigger
	pres   *fakePresenter
	pos    fakePositioner
	focus  *fakeFocus
	waiter *scriptedWaiter
	rec    *recorder
}

func newFixture(interaction Interaction) *fixture {
	rec := &recorder{}
	f := &fixture{
		host:   NewRoot(interaction),
		surf:   NewElement(),
		trig:   NewElementTrigger(),
		pres:   newFakePresenter(rec),
		pos:    fakePositioner{rec: rec},
		focus:  &fakeFocus{},
		waiter: newScriptedWaiter(),
		rec:    rec,
	}
	f.host.SetOpenables(f.surf)
	f.host.SetTrigger(f.trig)

	f.host.AddListener(event.TypeBeforeToggle, func(ev *event.Event) {
		d := ev.Detail.(BeforeToggleDetail)
		rec.add("beforetoggle:" + d.NewState)
	})
	f.host.AddListener(event.TypeOpened, func(*event.Event) { rec.add("root:opened") })
	f.host.AddListener(event.TypeClosed, func(*event.Event) { rec.add("root:closed") })
	f.surf.AddListener(event.TypeOpened, func(*event.Event) { rec.add("local:opened") })
	f.surf.AddListener(event.TypeClosed, func(*event.Event) { rec.add("local:closed") })
	f.trig.AddListener(event.TypeOpened, func(*event.Event) { rec.add("trigger:opened") })
	f.trig.AddListener(event.TypeClosed, func(*event.Event) { rec.add("trigger:closed") })
	return f
}

// controller builds a Controller whose frame waits are no-ops and whose
// transitions settle immediately.
func (f *fixture) controller() *Controller {
	return NewController(f.host, Options{
		Presenter:  f.pres,
		Positioner: f.pos,
		Focus:      f.focus,
		Waiter:     SettleWaiter{},
		Frames:     immediateFrames{},
	})
}

// gatedController holds each element's transition until released.
func (f *fixture) gatedController() *Controller {
	return NewController(f.host, Options{
		Presenter:  f.pres,
		Positioner: f.pos,
		Focus:      f.focus,
		Waiter:     f.waiter,
		Frames:     immediateFrames{},
	})
}

func TestOpenDispatchesLifecycleEventsInOrder(t *testing.T) {
	f := newFixture(InteractionClick)
	ctl := f.controller()

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	require.True(t, f.rec.has("beforetoggle:open"))
	require.True(t, f.rec.has("local:opened"))
	require.True(t, f.rec.has("root:opened"))
	require.True(t, f.rec.has("trigger:opened"))

	assert.Less(t, f.rec.index("beforetoggle:open"), f.rec.index("local:opened"))
	assert.Less(t, f.rec.index("local:opened"), f.rec.index("root:opened"))
	assert.Less(t, f.rec.index("root:opened"), f.rec.index("trigger:opened"))

	assert.True(t, f.surf.Open())
	assert.Equal(t, Presented, f.pres.State(f.surf))
}

func TestRootEventScopeWithRealTrigger(t *testing.T) {
	f := newFixture(InteractionClick)
	ctl := f.controller()

	var rootEvent *event.Event
	f.host.AddListener(event.TypeOpened, func(ev *event.Event) { rootEvent = ev })

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	require.NotNil(t, rootEvent)
	assert.True(t, rootEvent.Bubbles)
	assert.True(t, rootEvent.Composed)
}

func TestTriggerEventCarriesInteractionDetail(t *testing.T) {
	f := newFixture(InteractionLongpress)
	ctl := f.controller()

	var detail any
	f.trig.AddListener(event.TypeOpened, func(ev *event.Event) { detail = ev.Detail })

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	require.NotNil(t, detail)
	assert.Equal(t, ToggleDetail{Interaction: InteractionLongpress}, detail)
}

func TestVirtualTriggerSuppression(t *testing.T) {
	f := newFixture(InteractionClick)
	f.host.SetTrigger(VirtualTrigger{X: 12, Y: 4})
	ctl := f.controller()

	var rootEvent *event.Event
	f.host.AddListener(event.TypeOpened, func(ev *event.Event) { rootEvent = ev })

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	require.NotNil(t, rootEvent)
	assert.False(t, rootEvent.Bubbles)
	assert.False(t, rootEvent.Composed)
	assert.False(t, f.rec.has("trigger:opened"))
}

func TestAttachPresentsAndRepositions(t *testing.T) {
	f := newFixture(InteractionClick)
	ctl := f.controller()

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	assert.Less(t, f.rec.index("present"), f.rec.index("reposition"))
	assert.Less(t, f.rec.index("reposition"), f.rec.index("local:opened"))

	// A second run against an already-presented surface must not re-present.
	f.rec.mu.Lock()
	f.rec.labels = nil
	f.rec.mu.Unlock()

	ctl.ManageOpen(context.Background())
	assert.False(t, f.rec.has("present"))
}

func TestDisconnectedSurfaceIsNotPresented(t *testing.T) {
	f := newFixture(InteractionClick)
	f.surf.SetConnected(false)
	ctl := f.controller()

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	assert.False(t, f.rec.has("present"))
}

func TestStalenessAbortBeforeAnyPhaseCompletes(t *testing.T) {
	f := newFixture(InteractionClick)
	frames := NewManualScheduler()
	ctl := NewController(f.host, Options{
		Presenter: f.pres,
		Focus:     f.focus,
		Waiter:    SettleWaiter{},
		Frames:    frames,
	})

	f.host.SetOpen(true)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctl.ManageOpen(context.Background())
	}()

	// The run parks at the attach phase's first frame boundary.
	require.Eventually(t, func() bool { return frames.Waiting() == 1 }, time.Second, time.Millisecond)

	// Desired state flips before any phase completed.
	f.host.SetOpen(false)
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				if frames.Waiting() > 0 {
					frames.Step()
				}
				time.Sleep(time.Millisecond)
			}
		}
	}()
	<-done
	close(stop)

	assert.Empty(t, f.rec.list())
	assert.False(t, f.surf.Open())
	assert.Equal(t, NotPresented, f.pres.State(f.surf))
}

func TestStalenessDuringTransitionSuppressesReport(t *testing.T) {
	f := newFixture(InteractionClick)
	ctl := f.gatedController()

	f.host.SetOpen(true)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctl.ManageOpen(context.Background())
	}()

	// Start-phase mutations have been applied and stand.
	require.Eventually(t, func() bool { return f.surf.Open() }, time.Second, time.Millisecond)
	require.True(t, f.rec.has("beforetoggle:open"))

	f.host.SetOpen(false)
	f.waiter.release(f.surf)
	<-done

	assert.False(t, f.rec.has("root:opened"))
	assert.False(t, f.rec.has("local:opened"))
	assert.False(t, f.rec.has("trigger:opened"))
	// The superseded run never undoes the flip it already performed.
	assert.True(t, f.surf.Open())
}

func TestIdempotentConvergence(t *testing.T) {
	f := newFixture(InteractionClick)
	ctl := f.gatedController()

	f.host.SetOpen(true)
	done1 := make(chan struct{})
	go func() {
		defer close(done1)
		ctl.ManageOpen(context.Background())
	}()
	require.Eventually(t, func() bool { return f.surf.Open() }, time.Second, time.Millisecond)

	// Supersede the opening run, then drive the close run to completion.
	f.host.SetOpen(false)
	f.waiter.release(f.surf)
	<-done1

	done2 := make(chan struct{})
	go func() {
		defer close(done2)
		ctl.ManageOpen(context.Background())
	}()
	require.Eventually(t, func() bool { return !f.surf.Open() }, time.Second, time.Millisecond)
	f.waiter.release(f.surf)
	<-done2

	assert.False(t, f.rec.has("root:opened"))
	assert.True(t, f.rec.has("root:closed"))
	assert.False(t, f.host.Open())
	assert.False(t, f.surf.Open())
}

func TestDelayCancellationRevertsState(t *testing.T) {
	f := newFixture(InteractionHover)
	f.host.SetOpenDelay(200 * time.Millisecond)
	ctl := f.controller()

	f.host.SetOpen(true)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctl.ManageOpen(context.Background())
	}()
	require.Eventually(t, func() bool { return ctl.delays.Pending(f.host.ID()) }, time.Second, time.Millisecond)

	// A close request arrives before the delay elapses.
	f.host.SetOpen(false)
	ctl.ManageOpen(context.Background())
	<-done

	assert.False(t, f.host.Open())
	assert.False(t, f.rec.has("root:opened"))
	assert.False(t, ctl.delays.Pending(f.host.ID()))
}

func TestDelayElapsedOpensNormally(t *testing.T) {
	f := newFixture(InteractionHover)
	f.host.SetOpenDelay(5 * time.Millisecond)
	ctl := f.controller()

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	assert.True(t, f.rec.has("root:opened"))
	assert.True(t, f.host.Open())
}

func TestHideBeforeReportOnClose(t *testing.T) {
	f := newFixture(InteractionClick)
	ctl := f.controller()

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())
	require.Equal(t, Presented, f.pres.State(f.surf))

	gate := make(chan struct{})
	f.pres.mu.Lock()
	f.pres.hideGate = gate
	f.pres.mu.Unlock()

	f.host.SetOpen(false)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctl.ManageOpen(context.Background())
	}()

	require.Eventually(t, func() bool { return f.rec.has("hide-requested") }, time.Second, time.Millisecond)
	assert.False(t, f.rec.has("root:closed"), "close must not be reported before the platform confirms the hide")

	close(gate)
	<-done

	require.True(t, f.rec.has("root:closed"))
	assert.Less(t, f.rec.index("hide-confirmed"), f.rec.index("local:closed"))
	assert.Equal(t, NotPresented, f.pres.State(f.surf))
}

// unsupportedPresenter cannot probe its platform: every query collapses to
// Unsupported.
type unsupportedPresenter struct{ rec *recorder }

func (p unsupportedPresenter) State(Openable) PresentState { return Unsupported }

func (p unsupportedPresenter) Present(Openable) error {
	p.rec.add("present")
	return nil
}

func (p unsupportedPresenter) Hide(context.Context, Openable) error {
	p.rec.add("hide-requested")
	return nil
}

func TestUnsupportedProbeTreatedAsWorstCase(t *testing.T) {
	f := newFixture(InteractionClick)
	ctl := NewController(f.host, Options{
		Presenter: unsupportedPresenter{rec: f.rec},
		Focus:     f.focus,
		Waiter:    SettleWaiter{},
		Frames:    immediateFrames{},
	})

	// Opening assumes the surface is not yet presented.
	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())
	assert.True(t, f.rec.has("present"))

	// Closing assumes it might still be presented and hides anyway.
	f.host.SetOpen(false)
	ctl.ManageOpen(context.Background())
	assert.True(t, f.rec.has("hide-requested"))
	assert.Less(t, f.rec.index("hide-requested"), f.rec.index("local:closed"))
}

func TestFocusMovesIntoOverlayOnOpen(t *testing.T) {
	f := newFixture(InteractionClick)
	candidate := &fakeFocusable{}
	f.focus.first = candidate
	ctl := f.controller()

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	assert.True(t, candidate.Focused())
}

func TestFocusCandidateFoundThroughSlot(t *testing.T) {
	f := newFixture(InteractionClick)
	f.surf.SetSlots("content")
	candidate := &fakeFocusable{}
	f.focus.slotFirst = candidate
	ctl := f.controller()

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	assert.True(t, candidate.Focused())
}

func TestFocusRestoredToTriggerOnClose(t *testing.T) {
	f := newFixture(InteractionClick)
	inner := &fakeFocusable{}
	f.focus.first = inner
	ctl := f.controller()

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())
	require.False(t, f.trig.Focused())

	f.focus.mu.Lock()
	f.focus.active = inner
	f.focus.inside = true
	f.focus.mu.Unlock()

	f.host.SetOpen(false)
	ctl.ManageOpen(context.Background())

	assert.True(t, f.trig.Focused())
}

func TestFocusRestorationGuard(t *testing.T) {
	f := newFixture(InteractionClick)
	ctl := f.controller()

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	// Focus has moved outside the overlay subtree before the focus phase.
	f.focus.mu.Lock()
	f.focus.active = &fakeFocusable{}
	f.focus.inside = false
	f.focus.mu.Unlock()

	f.host.SetOpen(false)
	ctl.ManageOpen(context.Background())

	assert.False(t, f.trig.Focused())
}

func TestHoverOverlayNeverStealsFocus(t *testing.T) {
	f := newFixture(InteractionHover)
	candidate := &fakeFocusable{}
	f.focus.first = candidate
	ctl := f.controller()

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	assert.False(t, candidate.Focused())
}

func TestFocusDisabledSkipsPhase(t *testing.T) {
	f := newFixture(InteractionClick)
	f.host.SetReceivesFocus(false)
	candidate := &fakeFocusable{}
	f.focus.first = candidate
	ctl := f.controller()

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	assert.False(t, candidate.Focused())
}

func TestNestedOpenablesDispatchLocalDetailOnly(t *testing.T) {
	f := newFixture(InteractionClick)
	sub := NewElement()
	f.host.SetOpenables(f.surf, sub)
	ctl := f.controller()

	var subEvents []*event.Event
	sub.AddListener(event.TypeOpened, func(ev *event.Event) { subEvents = append(subEvents, ev) })

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	require.Len(t, subEvents, 1)
	assert.Equal(t, ToggleDetail{Interaction: InteractionClick}, subEvents[0].Detail)
	assert.False(t, subEvents[0].Bubbles)
	assert.True(t, sub.Open())

	// The root announcement fires exactly once, driven by the primary.
	count := 0
	for _, l := range f.rec.list() {
		if l == "root:opened" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestStartCallbacksPrecedeAllCompletions(t *testing.T) {
	f := newFixture(InteractionClick)
	sub := NewElement()
	f.host.SetOpenables(f.surf, sub)

	sub.AddListener(event.TypeOpened, func(*event.Event) { f.rec.add("sub:opened") })

	ctl := NewController(f.host, Options{
		Presenter: f.pres,
		Focus:     f.focus,
		Waiter:    startRecordingWaiter{rec: f.rec},
		Frames:    immediateFrames{},
	})

	f.host.SetOpen(true)
	ctl.ManageOpen(context.Background())

	list := f.rec.list()
	lastStart, firstCompletion := -1, len(list)
	for i, l := range list {
		switch l {
		case "start":
			lastStart = i
		case "local:opened", "sub:opened":
			if i < firstCompletion {
				firstCompletion = i
			}
		}
	}
	require.GreaterOrEqual(t, lastStart, 0)
	require.Less(t, firstCompletion, len(list))
	assert.Less(t, lastStart, firstCompletion)
}

// startRecordingWaiter marks each start and settles immediately.
type startRecordingWaiter struct{ rec *recorder }

func (w startRecordingWaiter) Watch(el Openable, start func()) <-chan struct{} {
	start()
	w.rec.add("start")
	ch := make(chan struct{})
	close(ch)
	return ch
}
