package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Paintersrp/spawny/internal/chain"
	"github.com/Paintersrp/spawny/internal/runtime"
)

// ErrInterrupted is returned when the run context is cancelled before any
// chain reached a terminal condition.
var ErrInterrupted = errors.New("run interrupted")

// Orchestrator runs chain sets: every chain concurrently, steps within a chain
// sequentially, and the whole run ends at the first terminal condition.
type Orchestrator struct {
	launcher runtime.Launcher

	mu     sync.Mutex
	active *run
}

// NewOrchestrator constructs an orchestrator backed by the provided launcher.
func NewOrchestrator(launcher runtime.Launcher) *Orchestrator {
	return &Orchestrator{launcher: launcher}
}

// run holds the state shared by the chains of a single invocation.
type run struct {
	id       string
	launcher runtime.Launcher
	registry *runtime.Registry
	events   chan<- Event

	// cancel gates new launches once a terminal condition fired. It never
	// signals processes by itself.
	cancel context.CancelFunc

	mu          sync.Mutex
	terminated  bool
	interrupted bool
	// signaled holds every pid a sweep has asked to stop.
	signaled map[int]struct{}
	// primary is the failure that ended the run; late holds failures of
	// processes that were not torn down but exited on their own afterwards.
	primary error
	late    []error
}

// Run executes the set and blocks until every chain returned. The first chain
// to complete its last step or to fail triggers a teardown sweep that signals
// every process still tracked by the run. A failure that merely results from
// such a sweep is reported through events but does not fail the run. The
// returned error joins the failure that triggered the teardown with any later
// failure of a process that was never signaled.
//
// Cancelling ctx is treated as an external terminal condition. Events are
// delivered on events when it is non-nil; the caller must drain it.
func (o *Orchestrator) Run(ctx context.Context, set chain.Set, events chan<- Event) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := set.Validate(); err != nil {
		return err
	}
	set = set.Clone()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	r := &run{
		id:       uuid.NewString(),
		launcher: o.launcher,
		registry: runtime.NewRegistry(),
		events:   events,
		cancel:   cancel,
	}
	o.setActive(r)
	defer o.clearActive(r)

	done := make(chan struct{})
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		select {
		case <-ctx.Done():
			if r.claimTerminal() {
				r.markInterrupted()
			}
			r.sweep(ReasonInterrupted)
		case <-done:
		}
	}()

	var g errgroup.Group
	for i, c := range set {
		g.Go(func() error {
			return r.runChain(runCtx, i, c)
		})
	}
	_ = g.Wait()
	close(done)
	<-watchDone

	if err := r.failure(); err != nil {
		return err
	}
	if r.wasInterrupted() {
		return fmt.Errorf("%w: %v", ErrInterrupted, context.Cause(ctx))
	}
	return nil
}

// Tracked returns the identifiers currently tracked by the active run, or nil
// when no run is in progress.
func (o *Orchestrator) Tracked() []int {
	o.mu.Lock()
	r := o.active
	o.mu.Unlock()
	if r == nil {
		return nil
	}
	return r.registry.Snapshot()
}

// RunID returns the identifier of the active run, or an empty string.
func (o *Orchestrator) RunID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return ""
	}
	return o.active.id
}

func (o *Orchestrator) setActive(r *run) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.active = r
}

func (o *Orchestrator) clearActive(r *run) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == r {
		o.active = nil
	}
}

// claimTerminal records that a terminal condition fired and stops further
// launches. It reports whether the caller was the first to do so.
func (r *run) claimTerminal() bool {
	r.cancel()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.terminated {
		return false
	}
	r.terminated = true
	return true
}

func (r *run) recordFailure(err error, primary bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if primary {
		r.primary = err
		return
	}
	r.late = append(r.late, err)
}

func (r *run) failure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	if r.primary != nil {
		errs = append(errs, r.primary)
	}
	errs = append(errs, r.late...)
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return errors.Join(errs...)
}

func (r *run) markSignaled(pids []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.signaled == nil {
		r.signaled = make(map[int]struct{}, len(pids))
	}
	for _, pid := range pids {
		r.signaled[pid] = struct{}{}
	}
}

func (r *run) wasSignaled(pid int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.signaled[pid]
	return ok
}

func (r *run) markInterrupted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.interrupted = true
}

func (r *run) wasInterrupted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interrupted
}

func (r *run) emit(evt Event) {
	evt.Run = r.id
	sendEvent(r.events, evt)
}
