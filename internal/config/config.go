// Package config loads the TOML configuration file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WatchDir string `toml:"watch_dir"`
	DataDir  string `toml:"data_dir"` // Empty: per execution mode
	LogDir   string `toml:"log_dir"`  // Empty: per execution mode
}

// Archiver contains configuration for the external archiver.
type Archiver struct {
	Path           string `toml:"path"` // Empty: auto-detect
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Watcher contains directory watch and stability probe timing.
type Watcher struct {
	PollTimeoutMillis   int `toml:"poll_timeout_ms"`
	ErrorBackoffSeconds int `toml:"error_backoff_seconds"`
	StabilityAttempts   int `toml:"stability_attempts"`
	StabilityIntervalMS int `toml:"stability_interval_ms"`
	HeartbeatSeconds    int `toml:"heartbeat_seconds"`
	ControlPollMillis   int `toml:"control_poll_ms"`
}

// Extraction contains password and confirmation behaviour.
type Extraction struct {
	MaxPasswordAttempts    int    `toml:"max_password_attempts"`
	ConfirmNonConventional string `toml:"confirm_non_conventional"` // ask, always, never
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // json or console
}

// Config is the full configuration file.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Archiver      Archiver      `toml:"archiver"`
	Watcher       Watcher       `toml:"watcher"`
	Extraction    Extraction    `toml:"extraction"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the per-user config file.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return expandPath("~/.config/autounzip/config.toml")
	}
	return filepath.Join(dir, "autounzip", "config.toml"), nil
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, "", false, fmt.Errorf("parse config: %s", strict.String())
			}
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return "", false, err
		}
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

// ArchiverTimeout bounds one archiver run.
func (c *Config) ArchiverTimeout() time.Duration {
	return time.Duration(c.Archiver.TimeoutSeconds) * time.Second
}

// PollTimeout is the directory wait timeout.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Watcher.PollTimeoutMillis) * time.Millisecond
}

// ErrorBackoff is the pause after a failed directory wait.
func (c *Config) ErrorBackoff() time.Duration {
	return time.Duration(c.Watcher.ErrorBackoffSeconds) * time.Second
}

// StabilityInterval is the delay before each stability probe attempt.
func (c *Config) StabilityInterval() time.Duration {
	return time.Duration(c.Watcher.StabilityIntervalMS) * time.Millisecond
}

// HeartbeatInterval is how often the monitor refreshes its state row.
func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Watcher.HeartbeatSeconds) * time.Second
}

// ControlPollInterval is how often pending CLI requests are checked.
func (c *Config) ControlPollInterval() time.Duration {
	return time.Duration(c.Watcher.ControlPollMillis) * time.Millisecond
}

// NotifyTimeout bounds one ntfy request.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

// EnsureDirectories creates the log and data directories when configured.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.DataDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	pathValue = os.ExpandEnv(pathValue)
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
