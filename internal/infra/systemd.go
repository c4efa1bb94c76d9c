package infra

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

const systemdUnitTemplate = `[Unit]
Description={{.Description}}
After={{.After}}

[Service]
Type=simple
ExecStart="{{.ExecutablePath}}" run --service
Restart=on-failure
RestartSec=10

[Install]
WantedBy={{.WantedBy}}
`

type unitConfig struct {
	Description    string
	ExecutablePath string
	After          string
	WantedBy       string
}

// SystemdManagerImpl implements domain.ServiceManager with a systemd unit,
// a user unit in user mode and a system unit otherwise.
type SystemdManagerImpl struct {
	mode     ExecMode
	unitPath string
	run      commandRunner
}

// NewSystemdManager creates a systemd manager based on execution mode.
func NewSystemdManager(config *ExecModeConfig) *SystemdManagerImpl {
	return &SystemdManagerImpl{
		mode:     config.Mode,
		unitPath: filepath.Join(config.ServiceDir, SystemdUnitName),
		run:      runCommand,
	}
}

func (m *SystemdManagerImpl) generateUnitContent(execPath string) ([]byte, error) {
	cfg := unitConfig{
		Description:    ServiceDescription,
		ExecutablePath: execPath,
		After:          "default.target",
		WantedBy:       "default.target",
	}
	if m.mode == ExecModeSystem {
		cfg.After = "local-fs.target"
		cfg.WantedBy = "multi-user.target"
	}

	tmpl, err := template.New("unit").Parse(systemdUnitTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse unit template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return nil, fmt.Errorf("failed to execute unit template: %w", err)
	}
	return buf.Bytes(), nil
}

// systemctl runs systemctl against the right manager instance.
func (m *SystemdManagerImpl) systemctl(args ...string) error {
	if m.mode == ExecModeUser {
		args = append([]string{"--user"}, args...)
	}
	return m.run("systemctl", args...)
}

// Install writes the unit, reloads systemd and enables it now.
func (m *SystemdManagerImpl) Install(execPath string) error {
	if err := os.MkdirAll(filepath.Dir(m.unitPath), 0755); err != nil {
		return err
	}
	content, err := m.generateUnitContent(execPath)
	if err != nil {
		return err
	}
	if err := os.WriteFile(m.unitPath, content, 0644); err != nil {
		return err
	}
	if err := m.systemctl("daemon-reload"); err != nil {
		return err
	}
	return m.systemctl("enable", "--now", SystemdUnitName)
}

// Uninstall disables and removes the unit.
func (m *SystemdManagerImpl) Uninstall() error {
	_ = m.systemctl("disable", "--now", SystemdUnitName)
	if err := os.Remove(m.unitPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return m.systemctl("daemon-reload")
}

// IsInstalled checks if the unit file exists.
func (m *SystemdManagerImpl) IsInstalled() bool {
	_, err := os.Stat(m.unitPath)
	return err == nil
}

// Describe returns the unit path.
func (m *SystemdManagerImpl) Describe() string {
	return "systemd " + m.unitPath
}

// Ensure SystemdManagerImpl implements domain.ServiceManager.
var _ domain.ServiceManager = (*SystemdManagerImpl)(nil)
