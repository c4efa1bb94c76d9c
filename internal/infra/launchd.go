package infra

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// LaunchAgent plist template (runs as user)
const launchAgentTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>

    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>run</string>
        <string>--service</string>
    </array>

    <key>RunAtLoad</key>
    <true/>

    <key>KeepAlive</key>
    <dict>
        <key>SuccessfulExit</key>
        <false/>
    </dict>

    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>

    <key>StandardErrorPath</key>
    <string>{{.ErrorLogPath}}</string>

    <key>ProcessType</key>
    <string>Background</string>

    <key>ThrottleInterval</key>
    <integer>10</integer>
</dict>
</plist>`

// LaunchDaemon plist template (runs as root)
const launchDaemonTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>

    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>run</string>
        <string>--service</string>
    </array>

    <key>RunAtLoad</key>
    <true/>

    <key>KeepAlive</key>
    <dict>
        <key>SuccessfulExit</key>
        <false/>
    </dict>

    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>

    <key>StandardErrorPath</key>
    <string>{{.ErrorLogPath}}</string>

    <key>ThrottleInterval</key>
    <integer>10</integer>
</dict>
</plist>`

type plistConfig struct {
	Label          string
	ExecutablePath string
	LogPath        string
	ErrorLogPath   string
}

// commandRunner runs an external command; swapped out in tests.
type commandRunner func(name string, args ...string) error

func runCommand(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %w: %s", name, args, err, bytes.TrimSpace(out))
	}
	return nil
}

// LaunchdManagerImpl implements domain.ServiceManager with launchd.
// KeepAlive restarts the monitor after a crash but not after `autounzip stop`.
type LaunchdManagerImpl struct {
	mode      ExecMode
	plistPath string
	logDir    string
	run       commandRunner
}

// NewLaunchdManager creates a launchd manager based on execution mode.
func NewLaunchdManager(config *ExecModeConfig) *LaunchdManagerImpl {
	return &LaunchdManagerImpl{
		mode:      config.Mode,
		plistPath: filepath.Join(config.ServiceDir, LaunchdLabel+".plist"),
		logDir:    config.LogDir,
		run:       runCommand,
	}
}

// generatePlistContent creates plist content for the given exec path.
func (m *LaunchdManagerImpl) generatePlistContent(execPath string) ([]byte, error) {
	tmplStr := launchAgentTemplate
	if m.mode == ExecModeSystem {
		tmplStr = launchDaemonTemplate
	}

	config := plistConfig{
		Label:          LaunchdLabel,
		ExecutablePath: execPath,
		LogPath:        filepath.Join(m.logDir, "autounzip.out.log"),
		ErrorLogPath:   filepath.Join(m.logDir, "autounzip.err.log"),
	}

	tmpl, err := template.New("plist").Parse(tmplStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse plist template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, config); err != nil {
		return nil, fmt.Errorf("failed to execute plist template: %w", err)
	}
	return buf.Bytes(), nil
}

// Install writes the plist and (re)loads it. An identical plist is left alone.
func (m *LaunchdManagerImpl) Install(execPath string) error {
	if err := os.MkdirAll(filepath.Dir(m.plistPath), 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(m.logDir, 0755); err != nil {
		return err
	}

	content, err := m.generatePlistContent(execPath)
	if err != nil {
		return fmt.Errorf("failed to generate plist content: %w", err)
	}

	if current, err := os.ReadFile(m.plistPath); err == nil {
		if bytes.Equal(current, content) {
			return nil
		}
		_ = m.run("launchctl", "unload", m.plistPath)
	}

	if err := os.WriteFile(m.plistPath, content, 0644); err != nil {
		return err
	}
	// `launchctl load` is deprecated in favour of bootstrap but still works.
	return m.run("launchctl", "load", m.plistPath)
}

// Uninstall unloads and removes the plist.
func (m *LaunchdManagerImpl) Uninstall() error {
	_ = m.run("launchctl", "unload", m.plistPath)
	if err := os.Remove(m.plistPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsInstalled checks if plist is installed.
func (m *LaunchdManagerImpl) IsInstalled() bool {
	_, err := os.Stat(m.plistPath)
	return err == nil
}

// Describe returns the plist path.
func (m *LaunchdManagerImpl) Describe() string {
	return "launchd " + m.plistPath
}

// Ensure LaunchdManagerImpl implements domain.ServiceManager.
var _ domain.ServiceManager = (*LaunchdManagerImpl)(nil)
