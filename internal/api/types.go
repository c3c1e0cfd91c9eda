package api

import (
	stdcontext "context"
	"errors"
	"time"

	"github.com/Paintersrp/spawny/internal/engine"
)

// ErrNoActiveRun is returned when status is requested while nothing runs.
var ErrNoActiveRun = errors.New("no active run")

// StepReport describes the most recent step observed for a chain.
type StepReport struct {
	Index   int    `json:"index"`
	Program string `json:"program"`
	PID     int    `json:"pid,omitempty"`
	Status  string `json:"status,omitempty"`
}

// ChainReport describes the runtime state of a single chain.
type ChainReport struct {
	Name      string           `json:"name"`
	State     engine.EventType `json:"state"`
	Steps     int              `json:"steps"`
	Current   StepReport       `json:"current"`
	Message   string           `json:"message"`
	Reason    string           `json:"reason,omitempty"`
	LastEvent time.Time        `json:"last_event"`
}

// StatusReport aggregates run-wide status information.
type StatusReport struct {
	Run         string        `json:"run"`
	GeneratedAt time.Time     `json:"generated_at"`
	Tracked     []int         `json:"tracked"`
	Teardowns   int           `json:"teardowns"`
	Chains      []ChainReport `json:"chains"`
}

// Controller exposes read access to the running invocation.
type Controller interface {
	Status(ctx stdcontext.Context) (*StatusReport, error)
}
