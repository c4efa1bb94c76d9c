//go:build !windows

package daemon

import (
	"errors"

	"go.uber.org/zap"
)

// IsWindowsService reports whether the process was started by the SCM.
func IsWindowsService() bool { return false }

// RunWindowsService is only available on Windows.
func RunWindowsService(string, *Service, *zap.Logger) error {
	return errors.New("windows service mode is not available on this platform")
}
