package scenario

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mcrowther/veil/internal/event"
	"github.com/mcrowther/veil/internal/overlay"
)

// Record is one observed lifecycle event, timestamped relative to the start
// of the replay.
type Record struct {
	At    time.Duration `yaml:"at"`
	Event string        `yaml:"event"`
	Scope string        `yaml:"scope"` // root, local or trigger
}

// Result is the outcome of one replay run.
type Result struct {
	RunID          string   `yaml:"run_id"`
	Name           string   `yaml:"name"`
	Records        []Record `yaml:"records"`
	FinalOpen      bool     `yaml:"final_open"`
	FinalPresented bool     `yaml:"final_presented"`
}

// Events returns just the event names, in observation order.
func (r *Result) Events() []string {
	out := make([]string, len(r.Records))
	for i, rec := range r.Records {
		out[i] = rec.Scope + ":" + rec.Event
	}
	return out
}

// Runner replays scenarios against an in-memory host.
type Runner struct {
	logger        *slog.Logger
	frameInterval time.Duration
}

// NewRunner creates a replay runner. A zero frameInterval picks a cadence
// fast enough that frame waits do not dominate script timing.
func NewRunner(logger *slog.Logger, frameInterval time.Duration) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if frameInterval <= 0 {
		frameInterval = 4 * time.Millisecond
	}
	return &Runner{logger: logger, frameInterval: frameInterval}
}

// memoryPresenter is the headless platform: presenting and hiding are
// immediate bookkeeping.
type memoryPresenter struct {
	mu        sync.Mutex
	presented map[overlay.Openable]bool
}

func newMemoryPresenter() *memoryPresenter {
	return &memoryPresenter{presented: make(map[overlay.Openable]bool)}
}

func (p *memoryPresenter) State(el overlay.Openable) overlay.PresentState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.presented[el] {
		return overlay.Presented
	}
	return overlay.NotPresented
}

func (p *memoryPresenter) Present(el overlay.Openable) error {
	p.mu.Lock()
	p.presented[el] = true
	p.mu.Unlock()
	return nil
}

func (p *memoryPresenter) Hide(_ context.Context, el overlay.Openable) error {
	p.mu.Lock()
	p.presented[el] = false
	p.mu.Unlock()
	return nil
}

// Run replays the scenario and returns everything it observed.
func (r *Runner) Run(ctx context.Context, s *Scenario) (*Result, error) {
	kind, err := s.interaction()
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID: ulid.Make().String(),
		Name:  s.Name,
	}
	log := r.logger.With("scenario", s.Name, "run", result.RunID)

	host := overlay.NewRoot(kind)
	surf := overlay.NewElement()
	surf.SetTransitionDuration(s.Overlay.Transition)
	host.SetOpenables(surf)
	host.SetOpenDelay(s.Overlay.OpenDelay)
	if s.Overlay.Virtual {
		host.SetTrigger(overlay.VirtualTrigger{})
	} else {
		host.SetTrigger(overlay.NewElementTrigger())
	}

	var mu sync.Mutex
	start := time.Now()
	observe := func(scope string) event.Listener {
		return func(ev *event.Event) {
			mu.Lock()
			result.Records = append(result.Records, Record{
				At:    time.Since(start),
				Event: ev.Type,
				Scope: scope,
			})
			mu.Unlock()
		}
	}
	for _, typ := range []string{event.TypeBeforeToggle, event.TypeOpened, event.TypeClosed} {
		host.AddListener(typ, observe("root"))
		surf.AddListener(typ, observe("local"))
		if trig, ok := host.Trigger().(*overlay.ElementTrigger); ok {
			trig.AddListener(typ, observe("trigger"))
		}
	}

	frames := overlay.NewTickScheduler(r.frameInterval)
	frames.Start()
	defer frames.Stop()

	presenter := newMemoryPresenter()
	ctl := overlay.NewController(host, overlay.Options{
		Presenter: presenter,
		Waiter:    overlay.SettleWaiter{},
		Frames:    frames,
		Logger:    log,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, step := range s.Steps {
		select {
		case <-time.After(step.After):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		host.SetOpen(step.Open)
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctl.ManageOpen(runCtx)
		}()
	}

	select {
	case <-time.After(s.settleBudget()):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Unblock any run still parked on a delay or frame wait, then drain.
	cancel()
	wg.Wait()

	result.FinalOpen = host.Open()
	result.FinalPresented = presenter.State(surf) == overlay.Presented
	log.Debug("replay finished", "events", len(result.Records), "open", result.FinalOpen)
	return result, nil
}
