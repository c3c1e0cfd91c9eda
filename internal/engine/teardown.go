package engine

import (
	"fmt"

	"github.com/Paintersrp/spawny/internal/metrics"
)

// sweep signals every process tracked by the run and empties the registry. It
// is safe to call concurrently and repeatedly: a drained registry yields no
// targets and signaling an exited process is a no-op for the launcher.
func (r *run) sweep(reason string) {
	pids := r.registry.Drain()
	r.markSignaled(pids)
	metrics.SetTrackedProcesses(r.registry.Len())

	r.emit(Event{
		Type:    EventTypeTeardown,
		Reason:  reason,
		Message: fmt.Sprintf("terminating %d tracked process(es)", len(pids)),
	})

	signaled := 0
	for _, pid := range pids {
		if err := r.launcher.Terminate(pid); err != nil {
			r.emit(Event{
				Type:    EventTypeError,
				PID:     pid,
				Reason:  ReasonSignalFailed,
				Level:   "warn",
				Err:     err,
				Message: err.Error(),
			})
			continue
		}
		signaled++
		r.emit(Event{
			Type:    EventTypeSignaled,
			PID:     pid,
			Reason:  reason,
			Message: fmt.Sprintf("sent termination signal to pid %d", pid),
		})
	}
	metrics.ObserveTeardown(reason, signaled)
}
