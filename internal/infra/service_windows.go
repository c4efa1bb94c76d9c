//go:build windows

package infra

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// WindowsServiceManager implements domain.ServiceManager with the Service
// Control Manager. The service starts automatically at boot.
type WindowsServiceManager struct{}

// NewServiceManager returns the SCM manager; config is unused on Windows.
func NewServiceManager(config *ExecModeConfig) domain.ServiceManager {
	return &WindowsServiceManager{}
}

// Install registers execPath as an auto-start service running `run --service`.
func (m *WindowsServiceManager) Install(execPath string) error {
	sm, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("failed to open Service Control Manager: %w", err)
	}
	defer sm.Disconnect()

	if s, err := sm.OpenService(ServiceName); err == nil {
		s.Close()
		return fmt.Errorf("service %s is already installed", ServiceName)
	}

	s, err := sm.CreateService(ServiceName, execPath, mgr.Config{
		DisplayName: ServiceDisplayName,
		Description: ServiceDescription,
		StartType:   mgr.StartAutomatic,
	}, "run", "--service")
	if err != nil {
		return fmt.Errorf("failed to install service: %w", err)
	}
	defer s.Close()
	return nil
}

// Uninstall stops the service and deletes it.
func (m *WindowsServiceManager) Uninstall() error {
	sm, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("failed to open Service Control Manager: %w", err)
	}
	defer sm.Disconnect()

	s, err := sm.OpenService(ServiceName)
	if err != nil {
		return fmt.Errorf("service not found or access denied: %w", err)
	}
	defer s.Close()

	if status, err := s.Control(svc.Stop); err == nil {
		deadline := time.Now().Add(10 * time.Second)
		for status.State != svc.Stopped && time.Now().Before(deadline) {
			time.Sleep(300 * time.Millisecond)
			if status, err = s.Query(); err != nil {
				break
			}
		}
	} else if !errors.Is(err, windows.ERROR_SERVICE_NOT_ACTIVE) {
		return fmt.Errorf("failed to stop service: %w", err)
	}

	if err := s.Delete(); err != nil {
		return fmt.Errorf("failed to uninstall service: %w", err)
	}
	return nil
}

// IsInstalled checks if the service is registered.
func (m *WindowsServiceManager) IsInstalled() bool {
	sm, err := mgr.Connect()
	if err != nil {
		return false
	}
	defer sm.Disconnect()

	s, err := sm.OpenService(ServiceName)
	if err != nil {
		return false
	}
	s.Close()
	return true
}

// Describe names the SCM entry.
func (m *WindowsServiceManager) Describe() string {
	return "Windows service " + ServiceName
}

// Ensure WindowsServiceManager implements domain.ServiceManager.
var _ domain.ServiceManager = (*WindowsServiceManager)(nil)
