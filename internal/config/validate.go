package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateArchiver(); err != nil {
		return err
	}
	if err := c.validateWatcher(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateArchiver() error {
	if c.Archiver.TimeoutSeconds <= 0 {
		return errors.New("archiver.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWatcher() error {
	for name, v := range map[string]int{
		"watcher.poll_timeout_ms":       c.Watcher.PollTimeoutMillis,
		"watcher.error_backoff_seconds": c.Watcher.ErrorBackoffSeconds,
		"watcher.stability_attempts":    c.Watcher.StabilityAttempts,
		"watcher.heartbeat_seconds":     c.Watcher.HeartbeatSeconds,
		"watcher.control_poll_ms":       c.Watcher.ControlPollMillis,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Watcher.StabilityIntervalMS < 0 {
		return errors.New("watcher.stability_interval_ms must not be negative")
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if c.Extraction.MaxPasswordAttempts <= 0 {
		return errors.New("extraction.max_password_attempts must be positive")
	}
	switch c.Extraction.ConfirmNonConventional {
	case "ask", "always", "never":
		return nil
	default:
		return fmt.Errorf("extraction.confirm_non_conventional must be ask, always or never (got %q)", c.Extraction.ConfirmNonConventional)
	}
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full URL (got %q)", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error (got %q)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("logging.format must be json or console (got %q)", c.Logging.Format)
	}
}
