package infra

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// ExecMode represents the execution mode of the application.
type ExecMode string

const (
	// ExecModeUser runs as the logged-in user (LaunchAgent, systemd --user).
	ExecModeUser ExecMode = "user"
	// ExecModeSystem runs privileged (LaunchDaemon, system unit, Windows SCM).
	ExecModeSystem ExecMode = "system"
)

// Service identity shared by every service manager.
const (
	ServiceName        = "AutoUnzipService"
	ServiceDisplayName = "Auto Unzip Service"
	ServiceDescription = "Automatically extracts archives in the Downloads folder using PeaZip"
	LaunchdLabel       = "com.autounzip.agent"
	SystemdUnitName    = "autounzip.service"
)

// ExecModeConfig holds paths and settings based on execution mode.
type ExecModeConfig struct {
	Mode       ExecMode
	ServiceDir string // Where the plist or unit file goes (unused on Windows)
	DataDir    string // Encrypted state database and its key
	LogDir     string // Default log directory
	IsRoot     bool   // Whether running privileged
}

// DetectExecMode determines the execution mode from the current privileges.
func DetectExecMode() *ExecModeConfig {
	if isPrivileged() {
		return systemModeConfig()
	}
	return GetUserModeConfig()
}

func systemModeConfig() *ExecModeConfig {
	cfg := &ExecModeConfig{Mode: ExecModeSystem, IsRoot: true}
	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("ProgramData")
		if base == "" {
			base = `C:\ProgramData`
		}
		cfg.DataDir = filepath.Join(base, "AutoUnzip")
		cfg.LogDir = cfg.DataDir
	case "darwin":
		cfg.ServiceDir = "/Library/LaunchDaemons"
		cfg.DataDir = "/var/lib/autounzip"
		cfg.LogDir = "/var/log"
	default:
		cfg.ServiceDir = "/etc/systemd/system"
		cfg.DataDir = "/var/lib/autounzip"
		cfg.LogDir = "/var/log/autounzip"
	}
	return cfg
}

// GetUserModeConfig returns user mode config regardless of current privileges.
// Under sudo the invoking user's home directory is used.
func GetUserModeConfig() *ExecModeConfig {
	home := GetRealUserHome()
	cfg := &ExecModeConfig{Mode: ExecModeUser, IsRoot: isPrivileged()}
	switch runtime.GOOS {
	case "windows":
		base := os.Getenv("LOCALAPPDATA")
		if base == "" {
			base = filepath.Join(home, "AppData", "Local")
		}
		cfg.DataDir = filepath.Join(base, "AutoUnzip")
		cfg.LogDir = cfg.DataDir
	case "darwin":
		cfg.ServiceDir = filepath.Join(home, "Library", "LaunchAgents")
		cfg.DataDir = filepath.Join(home, ".autounzip")
		cfg.LogDir = filepath.Join(home, "Library", "Logs")
	default:
		cfg.ServiceDir = filepath.Join(home, ".config", "systemd", "user")
		cfg.DataDir = filepath.Join(home, ".autounzip")
		cfg.LogDir = filepath.Join(home, ".autounzip", "logs")
	}
	return cfg
}

// String returns a human-readable description of the mode.
func (m ExecMode) String() string {
	switch m {
	case ExecModeSystem:
		return "system"
	case ExecModeUser:
		return "user"
	default:
		return "unknown"
	}
}

// GetRealUserHome returns the real user's home directory, even when running under sudo.
func GetRealUserHome() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir
		}
	}
	home, _ := os.UserHomeDir()
	return home
}

// DefaultDownloadsDir returns the user's Downloads folder.
func DefaultDownloadsDir() string {
	return filepath.Join(GetRealUserHome(), "Downloads")
}
