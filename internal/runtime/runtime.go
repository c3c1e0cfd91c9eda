package runtime

import (
	"context"
	"fmt"

	"github.com/Paintersrp/spawny/internal/chain"
)

// ExitStatus is the raw outcome reported for an exited process.
type ExitStatus struct {
	PID int
	// Code is the exit code, or -1 when the process was terminated by a signal.
	Code int
	// Signal names the terminating signal, empty for a normal exit.
	Signal string
	// Description is the operating system's rendering of the status.
	Description string
	// Cancelled is set when the launcher signaled the process itself because
	// the launch context was cancelled while it was being spawned.
	Cancelled bool
}

// Success reports whether the process exited normally with code zero.
func (s ExitStatus) Success() bool {
	return s.Code == 0 && s.Signal == ""
}

func (s ExitStatus) String() string {
	if s.Description != "" {
		return s.Description
	}
	if s.Signal != "" {
		return "signal: " + s.Signal
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

// Launcher describes a backend capable of running a single program to
// completion while tracking it in a Registry.
type Launcher interface {
	// Launch spawns the program, inserts its identifier into reg before
	// waiting and removes it once the exit has been observed. A non-zero exit
	// is reported through the returned status rather than as an error.
	Launch(ctx context.Context, spec chain.ProcessSpec, reg *Registry) (ExitStatus, error)

	// Terminate asks the process identified by pid to stop. Targets that no
	// longer exist are not an error.
	Terminate(pid int) error
}
