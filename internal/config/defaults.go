package config

// Default values. The watch timings keep the documented behaviour: a one
// second poll, five second backoff after a wait failure, and ten stability
// probes one second apart.
const (
	defaultWatchDir            = "~/Downloads"
	defaultArchiverTimeout     = 300
	defaultPollTimeoutMillis   = 1000
	defaultErrorBackoffSeconds = 5
	defaultStabilityAttempts   = 10
	defaultStabilityIntervalMS = 1000
	defaultHeartbeatSeconds    = 5
	defaultControlPollMillis   = 1000
	defaultMaxPasswordAttempts = 3
	defaultConfirmPolicy       = "ask"
	defaultNotifyTimeout       = 10
	defaultLogLevel            = "info"
	defaultLogFormat           = "json"
)

// Default returns a Config populated with the default values.
func Default() Config {
	return Config{
		Paths: Paths{
			WatchDir: defaultWatchDir,
		},
		Archiver: Archiver{
			TimeoutSeconds: defaultArchiverTimeout,
		},
		Watcher: Watcher{
			PollTimeoutMillis:   defaultPollTimeoutMillis,
			ErrorBackoffSeconds: defaultErrorBackoffSeconds,
			StabilityAttempts:   defaultStabilityAttempts,
			StabilityIntervalMS: defaultStabilityIntervalMS,
			HeartbeatSeconds:    defaultHeartbeatSeconds,
			ControlPollMillis:   defaultControlPollMillis,
		},
		Extraction: Extraction{
			MaxPasswordAttempts:    defaultMaxPasswordAttempts,
			ConfirmNonConventional: defaultConfirmPolicy,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
