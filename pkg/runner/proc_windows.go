//go:build windows
// +build windows

package runner

import (
	"os"
	"os/exec"
)

func prepareCommand(cmd *exec.Cmd) {}

// terminate has no graceful equivalent of SIGTERM for console children
// on Windows.
func terminate(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return os.ErrProcessDone
	}
	return cmd.Process.Kill()
}

func exitCode(ps *os.ProcessState) int {
	if ps == nil {
		return -1
	}
	return ps.ExitCode()
}
