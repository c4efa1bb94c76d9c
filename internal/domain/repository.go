package domain

import (
	"context"
	"time"
)

// EventSource is a live subscription to change notifications for one directory.
type EventSource interface {
	// Wait blocks for at most timeout and returns the next batch.
	// Returns ErrWaitTimeout when nothing changed, ErrWaitFailure
	// (wrapped) when the underlying primitive failed.
	Wait(ctx context.Context, timeout time.Duration) (Batch, error)

	// Close releases the directory handle.
	Close() error
}

// EventSourceFactory opens an EventSource for a directory.
// Returns ErrWatchUnavailable (wrapped) if the directory cannot be opened.
type EventSourceFactory func(dir string) (EventSource, error)

// FileOpener performs one shared-read open attempt, used as the stability probe.
type FileOpener interface {
	TryOpenShared(path string) error
}

// StabilityProber gates a candidate until its writer is done.
type StabilityProber interface {
	WaitStable(ctx context.Context, path string) bool
}

// ArchiveClassifier decides by file name whether a file is an archive.
type ArchiveClassifier interface {
	IsArchive(name string) bool
	IsConventional(name string) bool
}

// ArchiverRunner runs the external archiver once.
type ArchiverRunner interface {
	// Path returns the archiver location, or "" when it is unknown.
	Path() string

	// Run spawns the archiver with the given arguments and waits up to timeout.
	Run(ctx context.Context, args []string, timeout time.Duration) ExtractionResult
}

// Extractor is the extraction step of the pipeline.
type Extractor interface {
	Extract(ctx context.Context, req ExtractionRequest) ExtractionResult
}

// AttemptTracker bounds password prompts per file name.
type AttemptTracker interface {
	ShouldPrompt(ctx context.Context, filename string) bool
	RecordAttempt(filename string)
	MarkPending(filename string)
	Count(filename string) int
	Has(filename string) bool
	Clear(filename string)
	Pending() int
}

// Notifier raises transient user-visible messages.
type Notifier interface {
	Notify(ctx context.Context, title, body string) error
}

// CredentialPrompter is the synchronous password/2FA dialog.
type CredentialPrompter interface {
	PromptCredentials(ctx context.Context, filename, hint string) Credentials
}

// Confirmer asks the user whether a non-conventional archive should be extracted.
type Confirmer interface {
	Confirm(ctx context.Context, candidate ArchiveCandidate) bool
}

// EncryptionProber inspects archive headers for encrypted entries.
// It never changes routing; results only annotate logs and prompts.
type EncryptionProber interface {
	// Probe returns (encrypted, known). known is false for formats it cannot read.
	Probe(path string) (encrypted bool, known bool)
}

// StateStore persists daemon status, control requests and extraction history.
// Implementation: SQLCipher encrypted SQLite database in the data directory.
type StateStore interface {
	// RegisterDaemon records the running monitor.
	RegisterDaemon(state DaemonState) error

	// UpdateHeartbeat refreshes liveness.
	UpdateHeartbeat() error

	// SetPaused publishes the applied paused flag.
	SetPaused(paused bool) error

	// GetState returns the last published state, nil if no monitor registered.
	GetState() (*DaemonState, error)

	// ClearDaemon removes the daemon row on clean shutdown.
	ClearDaemon() error

	// RequestPause leaves a pause/resume request for the monitor.
	RequestPause(paused bool) error

	// RequestShutdown leaves a shutdown request for the monitor.
	RequestShutdown() error

	// TakeControl returns and clears pending control requests.
	TakeControl() (ControlRequest, error)

	// RecordExtraction appends a history row.
	RecordExtraction(rec ExtractionRecord) error

	// RecentExtractions returns the newest rows first.
	RecentExtractions(limit int) ([]ExtractionRecord, error)

	// Close releases resources (e.g., database connection).
	Close() error
}

// ProcessManager handles OS process operations.
// Implementation: uses gopsutil for cross-platform support.
type ProcessManager interface {
	// KillTree terminates a process and all of its descendants.
	KillTree(pid int) error

	// IsRunning checks if a PID exists and is running.
	IsRunning(pid int) bool

	// GetCurrentPID returns the current process PID.
	GetCurrentPID() int
}

// ServiceManager registers the monitor with the OS service manager
// (launchd on macOS, systemd user units on Linux, the SCM on Windows).
type ServiceManager interface {
	// Install registers the service to run execPath at login/boot.
	Install(execPath string) error

	// Uninstall stops and removes the service.
	Uninstall() error

	// IsInstalled checks if the service is registered.
	IsInstalled() bool

	// Describe returns where the service definition lives, for status output.
	Describe() string
}

// KeyProvider supplies the state database key.
type KeyProvider interface {
	LoadKey() ([]byte, error)
	LoadOrCreateKey() ([]byte, error)
}
