package engine

import (
	"time"
)

// EventType captures high level lifecycle notifications emitted while chains
// execute.
type EventType string

const (
	EventTypeStarting  EventType = "starting"
	EventTypeExited    EventType = "exited"
	EventTypeFailed    EventType = "failed"
	EventTypeCompleted EventType = "completed"
	EventTypeTeardown  EventType = "teardown"
	EventTypeSignaled  EventType = "signaled"
	EventTypeError     EventType = "error"
)

// Event represents a single lifecycle notification. Chain-level fields are
// empty for run-level events such as teardown sweeps.
type Event struct {
	Timestamp time.Time
	Run       string
	Chain     string
	Step      int
	Steps     int
	Program   string
	PID       int
	Type      EventType
	Message   string
	Level     string
	Err       error
	Reason    string
}

const (
	ReasonStepSucceeded  = "step_succeeded"
	ReasonSpawnFailed    = "spawn_failed"
	ReasonWaitFailed     = "wait_failed"
	ReasonExitFailure    = "exit_failure"
	ReasonTornDown       = "torn_down"
	ReasonChainFailed    = "chain_failed"
	ReasonChainCompleted = "chain_completed"
	ReasonInterrupted    = "interrupted"
	ReasonSignalFailed   = "signal_failed"
)

func sendEvent(events chan<- Event, evt Event) {
	if events == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	if evt.Level == "" {
		evt.Level = "info"
	}
	events <- evt
}
