//go:build !windows

package infra

import (
	"runtime"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// NewServiceManager returns launchd on macOS and systemd elsewhere.
func NewServiceManager(config *ExecModeConfig) domain.ServiceManager {
	if runtime.GOOS == "darwin" {
		return NewLaunchdManager(config)
	}
	return NewSystemdManager(config)
}
