package runtime_test

import (
	"errors"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/Paintersrp/spawny/internal/runtime"
)

func TestRegistryInsertRemoveIdempotent(t *testing.T) {
	reg := runtime.NewRegistry()

	reg.Insert(10)
	reg.Insert(10)
	reg.Insert(3)
	if got := reg.Snapshot(); !reflect.DeepEqual(got, []int{3, 10}) {
		t.Fatalf("unexpected snapshot %v", got)
	}

	reg.Remove(10)
	reg.Remove(10)
	reg.Remove(99)
	if got := reg.Snapshot(); !reflect.DeepEqual(got, []int{3}) {
		t.Fatalf("unexpected snapshot after remove %v", got)
	}
}

func TestRegistrySnapshotIsCopy(t *testing.T) {
	reg := runtime.NewRegistry()
	reg.Insert(1)

	snap := reg.Snapshot()
	reg.Insert(2)
	snap[0] = 42

	if got := reg.Snapshot(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("snapshot aliased registry storage: %v", got)
	}
}

func TestRegistryDrainAndClear(t *testing.T) {
	reg := runtime.NewRegistry()
	reg.Insert(7)
	reg.Insert(5)

	if got := reg.Drain(); !reflect.DeepEqual(got, []int{5, 7}) {
		t.Fatalf("unexpected drained pids %v", got)
	}
	if reg.Len() != 0 {
		t.Fatalf("expected registry empty after drain, got %d", reg.Len())
	}
	if got := reg.Drain(); len(got) != 0 {
		t.Fatalf("expected empty drain, got %v", got)
	}

	reg.Insert(1)
	reg.Clear()
	reg.Clear()
	if reg.Len() != 0 {
		t.Fatalf("expected registry empty after clear")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := runtime.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				pid := base*1000 + j
				reg.Insert(pid)
				_ = reg.Snapshot()
				reg.Remove(pid)
				if j%10 == 0 {
					reg.Drain()
					reg.Clear()
				}
			}
		}(i)
	}
	wg.Wait()

	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %v", reg.Snapshot())
	}
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  runtime.ExitStatus
		success bool
		text    string
	}{
		{name: "zero", status: runtime.ExitStatus{Code: 0}, success: true, text: "exit status 0"},
		{name: "nonZero", status: runtime.ExitStatus{Code: 1}, success: false, text: "exit status 1"},
		{name: "signal", status: runtime.ExitStatus{Code: -1, Signal: "terminated"}, success: false, text: "signal: terminated"},
		{name: "description", status: runtime.ExitStatus{Code: 2, Description: "exit status 2"}, success: false, text: "exit status 2"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.status.Success(); got != tc.success {
				t.Fatalf("Success()=%v, want %v", got, tc.success)
			}
			if got := tc.status.String(); got != tc.text {
				t.Fatalf("String()=%q, want %q", got, tc.text)
			}
		})
	}
}

func TestErrorsNameProgram(t *testing.T) {
	spawn := &runtime.SpawnError{Program: "missing-binary", Err: os.ErrNotExist}
	if !errors.Is(spawn, os.ErrNotExist) {
		t.Fatalf("spawn error does not unwrap to cause")
	}
	if !strings.Contains(spawn.Error(), "missing-binary") {
		t.Fatalf("spawn error missing program: %v", spawn)
	}

	wait := &runtime.WaitError{Program: "sleep", Err: errors.New("no child")}
	if !strings.Contains(wait.Error(), "sleep") || !strings.Contains(wait.Error(), "no child") {
		t.Fatalf("unexpected wait error: %v", wait)
	}

	failure := &runtime.ProcessFailure{Program: "false", Status: runtime.ExitStatus{Code: 1}}
	if got := failure.Error(); got != "process false exited with exit status 1" {
		t.Fatalf("unexpected failure message %q", got)
	}
}
