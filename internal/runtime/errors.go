package runtime

import "fmt"

// SpawnError reports that a program could not be started.
type SpawnError struct {
	// Program is the program that failed to start
	Program string
	// Err is the underlying operating system error
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Program, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *SpawnError) Unwrap() error {
	return e.Err
}

// WaitError reports that the exit status of a started program could not be
// obtained.
type WaitError struct {
	Program string
	Err     error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("wait for %s: %v", e.Program, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *WaitError) Unwrap() error {
	return e.Err
}

// ProcessFailure reports a program that ran and exited unsuccessfully.
type ProcessFailure struct {
	Program string
	Status  ExitStatus
}

func (e *ProcessFailure) Error() string {
	return fmt.Sprintf("process %s exited with %s", e.Program, e.Status)
}
