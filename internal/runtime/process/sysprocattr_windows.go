//go:build windows

package process

import "os/exec"

func configureProcessGroup(cmd *exec.Cmd) {}
