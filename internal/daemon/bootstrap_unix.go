//go:build !windows

package daemon

import (
	"path/filepath"
	"syscall"
)

func detachAttr() *syscall.SysProcAttr {
	// New session: detached from the controlling terminal.
	return &syscall.SysProcAttr{Setsid: true}
}

func evalSymlinks(path string) (string, error) { return filepath.EvalSymlinks(path) }
