package daemon

import (
	"fmt"
	"os"
	"os/exec"
)

// StartDetached spawns execPath with args as a background process that
// outlives the caller, and returns its PID.
func StartDetached(execPath string, args ...string) (int, error) {
	cmd := exec.Command(execPath, args...)
	cmd.SysProcAttr = detachAttr()

	// No stdin/stdout/stderr: the monitor logs to its own file.
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start monitor: %w", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("release monitor process: %w", err)
	}
	return pid, nil
}

// Executable returns the running binary path with symlinks resolved.
func Executable() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", err
	}
	if resolved, err := evalSymlinks(path); err == nil {
		return resolved, nil
	}
	return path, nil
}
