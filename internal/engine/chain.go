package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/Paintersrp/spawny/internal/chain"
	"github.com/Paintersrp/spawny/internal/metrics"
	"github.com/Paintersrp/spawny/internal/runtime"
)

// runChain executes the steps of c strictly in order. Both a failing step and
// the successful exit of the last step end the chain with a teardown sweep.
// Failures caused by an earlier teardown are reported as events only.
func (r *run) runChain(ctx context.Context, index int, c chain.Chain) error {
	label := c.Label(index)
	last := len(c.Steps) - 1

	for i, spec := range c.Steps {
		base := Event{Chain: label, Step: i + 1, Steps: len(c.Steps), Program: spec.Program}

		starting := base
		starting.Type = EventTypeStarting
		starting.Message = fmt.Sprintf("executing %s with args %q", spec.Program, spec.Args)
		r.emit(starting)

		status, err := r.launcher.Launch(ctx, spec, r.registry)
		if err == nil && !status.Success() {
			err = &runtime.ProcessFailure{Program: spec.Program, Status: status}
		}
		if err != nil {
			return r.failChain(base, status, err)
		}

		exited := base
		exited.Type = EventTypeExited
		exited.PID = status.PID
		exited.Reason = ReasonStepSucceeded
		exited.Message = fmt.Sprintf("%s exited with %s", spec.Program, status)
		r.emit(exited)

		if i == last {
			r.claimTerminal()
			completed := base
			completed.Type = EventTypeCompleted
			completed.Reason = ReasonChainCompleted
			completed.Message = "chain completed successfully, terminating all processes"
			r.emit(completed)
			r.sweep(ReasonChainCompleted)
			metrics.ObserveChainFinished("completed")
			return nil
		}
	}
	return nil
}

func (r *run) failChain(base Event, status runtime.ExitStatus, err error) error {
	primary := r.claimTerminal()
	secondary := !primary && r.tornDown(status, err)

	failed := base
	failed.Type = EventTypeFailed
	failed.PID = status.PID
	failed.Err = err
	failed.Message = err.Error()
	failed.Reason = failureReason(err)
	failed.Level = "error"
	if secondary {
		failed.Reason = ReasonTornDown
		failed.Level = "warn"
	}
	r.emit(failed)

	r.sweep(ReasonChainFailed)
	metrics.ObserveChainFinished("failed")

	if secondary {
		return nil
	}
	err = fmt.Errorf("%s step %d: %w", base.Chain, base.Step, err)
	r.recordFailure(err, primary)
	return err
}

// tornDown reports whether a step failed only because the run was already
// ending: it was never started, or the process was signaled by a sweep or by
// the launcher on cancellation.
func (r *run) tornDown(status runtime.ExitStatus, err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	if status.Cancelled {
		return true
	}
	return status.PID > 0 && r.wasSignaled(status.PID)
}

func failureReason(err error) string {
	var (
		spawnErr *runtime.SpawnError
		waitErr  *runtime.WaitError
		exitErr  *runtime.ProcessFailure
	)
	switch {
	case errors.As(err, &spawnErr):
		return ReasonSpawnFailed
	case errors.As(err, &waitErr):
		return ReasonWaitFailed
	case errors.As(err, &exitErr):
		return ReasonExitFailure
	case errors.Is(err, context.Canceled):
		return ReasonInterrupted
	default:
		return ReasonChainFailed
	}
}
