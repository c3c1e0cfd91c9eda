package cli

import (
	stdcontext "context"
	"sync"
	"time"

	"github.com/Paintersrp/spawny/internal/api"
	"github.com/Paintersrp/spawny/internal/chain"
	"github.com/Paintersrp/spawny/internal/cliutil"
	"github.com/Paintersrp/spawny/internal/engine"
)

// statePending marks a chain for which no event has been observed yet.
const statePending engine.EventType = "pending"

// chainStatus captures runtime state for a chain observed via events.
type chainStatus struct {
	name      string
	steps     int
	state     engine.EventType
	current   api.StepReport
	message   string
	reason    string
	lastEvent time.Time
}

// statusTracker maintains in-memory status for chains based on engine events.
type statusTracker struct {
	mu        sync.RWMutex
	run       string
	teardowns int
	order     []string
	chains    map[string]*chainStatus
}

// newStatusTracker seeds the tracker with every chain of set so chains that
// have not started yet still show up in reports.
func newStatusTracker(set chain.Set) *statusTracker {
	t := &statusTracker{chains: make(map[string]*chainStatus, len(set))}
	for i, c := range set {
		t.ensure(c.Label(i)).steps = len(c.Steps)
	}
	return t
}

func (t *statusTracker) ensure(name string) *chainStatus {
	state := t.chains[name]
	if state == nil {
		state = &chainStatus{name: name, state: statePending}
		t.chains[name] = state
		t.order = append(t.order, name)
	}
	return state
}

// Apply updates the tracker based on the supplied event.
func (t *statusTracker) Apply(evt engine.Event) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if evt.Run != "" {
		t.run = evt.Run
	}
	if evt.Type == engine.EventTypeTeardown {
		t.teardowns++
	}
	if evt.Chain == "" {
		return
	}

	state := t.ensure(evt.Chain)
	if evt.Timestamp.After(state.lastEvent) {
		state.lastEvent = evt.Timestamp
	}
	if evt.Steps > 0 {
		state.steps = evt.Steps
	}
	state.state = evt.Type
	state.reason = evt.Reason

	switch evt.Type {
	case engine.EventTypeStarting:
		state.current = api.StepReport{Index: evt.Step, Program: evt.Program, Status: "running"}
	case engine.EventTypeExited, engine.EventTypeFailed:
		state.current = api.StepReport{Index: evt.Step, Program: evt.Program, PID: evt.PID, Status: string(evt.Type)}
	}

	message := evt.Message
	if message == "" && evt.Err != nil {
		message = evt.Err.Error()
	}
	state.message = cliutil.RedactSecrets(message)
}

// Report returns a copy of the tracked state in chain order.
func (t *statusTracker) Report() *api.StatusReport {
	t.mu.RLock()
	defer t.mu.RUnlock()

	report := &api.StatusReport{
		Run:         t.run,
		GeneratedAt: time.Now().UTC(),
		Teardowns:   t.teardowns,
		Chains:      make([]api.ChainReport, 0, len(t.order)),
	}
	for _, name := range t.order {
		state := t.chains[name]
		report.Chains = append(report.Chains, api.ChainReport{
			Name:      state.name,
			State:     state.state,
			Steps:     state.steps,
			Current:   state.current,
			Message:   state.message,
			Reason:    state.reason,
			LastEvent: state.lastEvent,
		})
	}
	return report
}

// tracked reports the PIDs of the active run.
type tracked interface {
	Tracked() []int
	RunID() string
}

// statusController serves status reports for the HTTP API by combining the
// event tracker with the live registry of the orchestrator.
type statusController struct {
	orch    tracked
	tracker *statusTracker
}

func (c *statusController) Status(ctx stdcontext.Context) (*api.StatusReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.tracker == nil {
		return nil, api.ErrNoActiveRun
	}
	report := c.tracker.Report()
	if c.orch != nil {
		if id := c.orch.RunID(); id != "" {
			report.Run = id
		}
		report.Tracked = c.orch.Tracked()
	}
	if report.Run == "" {
		return nil, api.ErrNoActiveRun
	}
	if report.Tracked == nil {
		report.Tracked = []int{}
	}
	return report, nil
}
