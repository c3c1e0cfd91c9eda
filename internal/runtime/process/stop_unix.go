//go:build !windows

package process

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func (l *launcher) Terminate(pid int) error {
	// 0 and negative values address whole groups, including our own.
	if pid <= 0 {
		return nil
	}
	target := pid
	if l.processGroup {
		target = -pid
	}
	if err := unix.Kill(target, unix.SIGTERM); err != nil && !errors.Is(err, unix.ESRCH) {
		return fmt.Errorf("signal process %d: %w", pid, err)
	}
	return nil
}

func signalName(state *os.ProcessState) string {
	ws, ok := state.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return ""
	}
	return ws.Signal().String()
}
