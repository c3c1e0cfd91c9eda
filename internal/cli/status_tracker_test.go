package cli

import (
	stdcontext "context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Paintersrp/spawny/internal/api"
	"github.com/Paintersrp/spawny/internal/chain"
	"github.com/Paintersrp/spawny/internal/engine"
)

func testSet() chain.Set {
	return chain.Set{
		{Name: "server", Steps: []chain.ProcessSpec{{Program: "./server"}}},
		{Steps: []chain.ProcessSpec{{Program: "sleep", Args: []string{"2"}}, {Program: "./client"}}},
	}
}

func TestStatusTrackerSeedsPendingChains(t *testing.T) {
	t.Parallel()

	report := newStatusTracker(testSet()).Report()
	if len(report.Chains) != 2 {
		t.Fatalf("expected two chains, got %+v", report.Chains)
	}
	if report.Chains[0].Name != "server" || report.Chains[1].Name != "chain 2" {
		t.Fatalf("unexpected chain order %+v", report.Chains)
	}
	for _, c := range report.Chains {
		if c.State != statePending {
			t.Fatalf("expected pending state for %s, got %q", c.Name, c.State)
		}
	}
	if report.Chains[1].Steps != 2 {
		t.Fatalf("expected step count from set, got %d", report.Chains[1].Steps)
	}
}

func TestStatusTrackerFollowsStepProgress(t *testing.T) {
	t.Parallel()

	tracker := newStatusTracker(testSet())
	base := time.Now().Add(-10 * time.Second)

	tracker.Apply(engine.Event{Run: "run-1", Chain: "chain 2", Step: 1, Steps: 2, Program: "sleep", Type: engine.EventTypeStarting, Message: "executing sleep", Timestamp: base})

	snap := tracker.Report().Chains[1]
	if snap.State != engine.EventTypeStarting {
		t.Fatalf("expected starting state, got %q", snap.State)
	}
	if snap.Current.Index != 1 || snap.Current.Program != "sleep" || snap.Current.Status != "running" {
		t.Fatalf("unexpected current step %+v", snap.Current)
	}

	tracker.Apply(engine.Event{Run: "run-1", Chain: "chain 2", Step: 1, Steps: 2, Program: "sleep", PID: 99, Type: engine.EventTypeExited, Reason: engine.ReasonStepSucceeded, Message: "sleep exited with exit status 0", Timestamp: base.Add(time.Second)})

	snap = tracker.Report().Chains[1]
	if snap.Current.PID != 99 || snap.Current.Status != "exited" {
		t.Fatalf("unexpected current step after exit %+v", snap.Current)
	}
	if snap.Reason != engine.ReasonStepSucceeded {
		t.Fatalf("expected reason to be recorded, got %q", snap.Reason)
	}
	if !snap.LastEvent.Equal(base.Add(time.Second)) {
		t.Fatalf("expected last event to advance, got %s", snap.LastEvent)
	}

	// Out of order timestamps do not move the last event backwards.
	tracker.Apply(engine.Event{Chain: "chain 2", Step: 2, Steps: 2, Program: "./client", Type: engine.EventTypeStarting, Timestamp: base})
	if got := tracker.Report().Chains[1].LastEvent; !got.Equal(base.Add(time.Second)) {
		t.Fatalf("last event moved backwards to %s", got)
	}
}

func TestStatusTrackerCountsTeardownsAndRedacts(t *testing.T) {
	t.Parallel()

	tracker := newStatusTracker(testSet())
	tracker.Apply(engine.Event{Run: "run-2", Type: engine.EventTypeTeardown, Message: "terminating 1 tracked process(es)"})
	tracker.Apply(engine.Event{Run: "run-2", Type: engine.EventTypeSignaled, PID: 7})
	tracker.Apply(engine.Event{Chain: "server", Step: 1, Type: engine.EventTypeFailed, Err: errors.New("process ./server --token=abc exited with exit status 1")})

	report := tracker.Report()
	if report.Run != "run-2" {
		t.Fatalf("expected run id, got %q", report.Run)
	}
	if report.Teardowns != 1 {
		t.Fatalf("expected one teardown, got %d", report.Teardowns)
	}
	server := report.Chains[0]
	if server.State != engine.EventTypeFailed {
		t.Fatalf("expected failed state, got %q", server.State)
	}
	if strings.Contains(server.Message, "abc") {
		t.Fatalf("expected secret to be redacted, got %q", server.Message)
	}
}

func TestStatusTrackerAddsUnknownChains(t *testing.T) {
	t.Parallel()

	tracker := newStatusTracker(nil)
	tracker.Apply(engine.Event{Chain: "late", Step: 1, Steps: 1, Type: engine.EventTypeStarting})

	report := tracker.Report()
	if len(report.Chains) != 1 || report.Chains[0].Name != "late" {
		t.Fatalf("expected late chain to be tracked, got %+v", report.Chains)
	}
}

type stubRun struct {
	id   string
	pids []int
}

func (s stubRun) Tracked() []int { return s.pids }
func (s stubRun) RunID() string  { return s.id }

func TestStatusControllerMergesTrackedPids(t *testing.T) {
	t.Parallel()

	ctrl := &statusController{orch: stubRun{id: "run-3", pids: []int{10, 11}}, tracker: newStatusTracker(testSet())}
	report, err := ctrl.Status(stdcontext.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if report.Run != "run-3" {
		t.Fatalf("expected live run id, got %q", report.Run)
	}
	if len(report.Tracked) != 2 || report.Tracked[0] != 10 {
		t.Fatalf("unexpected tracked pids %v", report.Tracked)
	}
}

func TestStatusControllerWithoutRun(t *testing.T) {
	t.Parallel()

	ctrl := &statusController{orch: stubRun{}, tracker: newStatusTracker(testSet())}
	if _, err := ctrl.Status(stdcontext.Background()); !errors.Is(err, api.ErrNoActiveRun) {
		t.Fatalf("expected ErrNoActiveRun, got %v", err)
	}

	ctx, cancel := stdcontext.WithCancel(stdcontext.Background())
	cancel()
	if _, err := ctrl.Status(ctx); !errors.Is(err, stdcontext.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
