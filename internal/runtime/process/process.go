package process

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/Paintersrp/spawny/internal/chain"
	"github.com/Paintersrp/spawny/internal/metrics"
	"github.com/Paintersrp/spawny/internal/runtime"
)

type launcher struct {
	processGroup bool
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
}

// Option configures the process launcher.
type Option func(*launcher)

// WithProcessGroup starts every child in its own process group and signals
// the whole group on termination.
func WithProcessGroup(enabled bool) Option {
	return func(l *launcher) {
		l.processGroup = enabled
	}
}

// WithStdio overrides the streams handed to children. Nil values keep the
// parent's own streams.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(l *launcher) {
		if stdin != nil {
			l.stdin = stdin
		}
		if stdout != nil {
			l.stdout = stdout
		}
		if stderr != nil {
			l.stderr = stderr
		}
	}
}

// New constructs a launcher that executes chain steps as local processes.
func New(opts ...Option) runtime.Launcher {
	l := &launcher{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *launcher) Launch(ctx context.Context, spec chain.ProcessSpec, reg *runtime.Registry) (runtime.ExitStatus, error) {
	if err := ctx.Err(); err != nil {
		return runtime.ExitStatus{}, err
	}

	cmd := exec.Command(spec.Program, spec.Args...)
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	if l.processGroup {
		configureProcessGroup(cmd)
	}

	if err := cmd.Start(); err != nil {
		metrics.ObserveProcessExit(spec.Program, "error")
		return runtime.ExitStatus{}, &runtime.SpawnError{Program: spec.Program, Err: err}
	}

	pid := cmd.Process.Pid
	reg.Insert(pid)
	metrics.ObserveProcessStarted(spec.Program)
	metrics.SetTrackedProcesses(reg.Len())

	// An interrupt sweep may have drained the registry between Start and
	// Insert; make sure the child still sees the signal.
	cancelled := false
	if ctx.Err() != nil {
		cancelled = l.Terminate(pid) == nil
	}

	waitErr := cmd.Wait()
	reg.Remove(pid)
	metrics.SetTrackedProcesses(reg.Len())

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		metrics.ObserveProcessExit(spec.Program, "error")
		return runtime.ExitStatus{PID: pid, Cancelled: cancelled}, &runtime.WaitError{Program: spec.Program, Err: waitErr}
	}

	status := exitStatus(pid, cmd.ProcessState)
	status.Cancelled = cancelled
	if status.Success() {
		metrics.ObserveProcessExit(spec.Program, "success")
	} else {
		metrics.ObserveProcessExit(spec.Program, "failure")
	}
	return status, nil
}

func exitStatus(pid int, state *os.ProcessState) runtime.ExitStatus {
	if state == nil {
		return runtime.ExitStatus{PID: pid, Code: -1, Description: "unknown exit status"}
	}
	return runtime.ExitStatus{
		PID:         pid,
		Code:        state.ExitCode(),
		Signal:      signalName(state),
		Description: state.String(),
	}
}
