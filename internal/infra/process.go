// Package infra implements infrastructure concerns (watch sources, archiver, state store, services).
package infra

import (
	"errors"
	"os"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// KillTree kills pid and every descendant, children first. The archiver
// spawns helper processes that would otherwise outlive a timeout.
func (pm *ProcessManagerImpl) KillTree(pid int) error {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return err
	}
	return killTree(p)
}

func killTree(p *process.Process) error {
	var errs []error
	children, _ := p.Children() // ErrorNoChildren is expected for leaves
	for _, c := range children {
		if err := killTree(c); err != nil {
			errs = append(errs, err)
		}
	}
	if err := p.Kill(); err != nil {
		if running, _ := p.IsRunning(); running {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// IsRunning checks if a PID exists and is running.
func (pm *ProcessManagerImpl) IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

// GetCurrentPID returns the current process PID.
func (pm *ProcessManagerImpl) GetCurrentPID() int {
	return os.Getpid()
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
