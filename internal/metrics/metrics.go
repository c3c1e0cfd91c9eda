package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	processesStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spawny",
		Name:      "processes_started_total",
		Help:      "Total number of processes spawned, by program.",
	}, []string{"program"})

	processExits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spawny",
		Name:      "process_exits_total",
		Help:      "Total number of observed process exits, by program and result.",
	}, []string{"program", "result"})

	trackedProcesses = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "spawny",
		Name:      "tracked_processes",
		Help:      "Number of live processes currently tracked for teardown.",
	})

	teardownSweeps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spawny",
		Name:      "teardown_sweeps_total",
		Help:      "Total number of teardown sweeps, by trigger.",
	}, []string{"reason"})

	processesSignaled = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "spawny",
		Name:      "processes_signaled_total",
		Help:      "Total number of termination signals sent during teardown sweeps.",
	})

	chainsFinished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "spawny",
		Name:      "chains_finished_total",
		Help:      "Total number of chains that finished, by result.",
	}, []string{"result"})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "spawny",
		Name:      "build_info",
		Help:      "Build metadata for the running spawny binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(
		processesStarted,
		processExits,
		trackedProcesses,
		teardownSweeps,
		processesSignaled,
		chainsFinished,
		buildInfo,
	)
}

// Registry returns the Prometheus registry containing all spawny metrics.
func Registry() *prometheus.Registry {
	return registry
}

// ObserveProcessStarted counts a successfully spawned process.
func ObserveProcessStarted(program string) {
	processesStarted.WithLabelValues(label(program)).Inc()
}

// ObserveProcessExit counts an observed exit. Result is one of "success",
// "failure" or "error".
func ObserveProcessExit(program, result string) {
	processExits.WithLabelValues(label(program), result).Inc()
}

// SetTrackedProcesses records the size of the process registry.
func SetTrackedProcesses(n int) {
	if n < 0 {
		n = 0
	}
	trackedProcesses.Set(float64(n))
}

// ObserveTeardown counts a sweep and the number of processes it signaled.
func ObserveTeardown(reason string, signaled int) {
	teardownSweeps.WithLabelValues(label(reason)).Inc()
	if signaled > 0 {
		processesSignaled.Add(float64(signaled))
	}
}

// ObserveChainFinished counts a chain that returned. Result is "completed" or
// "failed".
func ObserveChainFinished(result string) {
	chainsFinished.WithLabelValues(label(result)).Inc()
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}

func label(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
