package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Paintersrp/spawny/internal/metrics"
)

func TestRegistryExposesMetrics(t *testing.T) {
	program := "metrics_test_program"

	metrics.EmitBuildInfo()
	metrics.ObserveProcessStarted(program)
	metrics.ObserveProcessExit(program, "failure")
	metrics.SetTrackedProcesses(3)
	metrics.ObserveTeardown("metrics_test_reason", 2)
	metrics.ObserveChainFinished("metrics_test_result")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("unexpected status code from metrics handler: %d", rec.Code)
	}

	body := rec.Body.String()
	for _, line := range []string{
		`spawny_processes_started_total{program="metrics_test_program"} 1`,
		`spawny_process_exits_total{program="metrics_test_program",result="failure"} 1`,
		`spawny_tracked_processes 3`,
		`spawny_teardown_sweeps_total{reason="metrics_test_reason"} 1`,
		`spawny_chains_finished_total{result="metrics_test_result"} 1`,
		"spawny_processes_signaled_total",
		"spawny_build_info{",
		"go_version=",
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("expected metric line %q in body:\n%s", line, body)
		}
	}
}

func TestEmptyLabelsAreNormalized(t *testing.T) {
	metrics.ObserveProcessStarted("")

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if !strings.Contains(rec.Body.String(), `spawny_processes_started_total{program="unknown"}`) {
		t.Fatalf("expected unknown program label in body:\n%s", rec.Body.String())
	}
}
