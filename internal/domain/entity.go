// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// Action is the kind of change reported for a directory entry.
type Action int

const (
	ActionOther Action = iota
	ActionCreated
	ActionRenamedTo
)

func (a Action) String() string {
	switch a {
	case ActionCreated:
		return "created"
	case ActionRenamedTo:
		return "renamed_to"
	default:
		return "other"
	}
}

// Relevant reports whether the action can announce a new file.
// Browsers either create the final name directly or rename a partial
// download onto it, so both count.
func (a Action) Relevant() bool {
	return a == ActionCreated || a == ActionRenamedTo
}

// ChangeEvent is one decoded notification record.
type ChangeEvent struct {
	Action   Action
	Filename string // Relative to the watched directory
}

// Batch is one delivery from the OS watch facility. A batch may carry
// several records; Events yields them in delivery order.
type Batch interface {
	Events() ([]ChangeEvent, error)
}

// ArchiveCandidate is a file that passed the stability and classification checks.
type ArchiveCandidate struct {
	Path           string
	Filename       string
	IsConventional bool
}

// ExtractionRequest is built fresh for every attempt and never persisted.
type ExtractionRequest struct {
	ArchivePath   string
	Password      string
	TwoFactorCode string
}

// HasCredentials reports whether the request carries any credential flag.
func (r ExtractionRequest) HasCredentials() bool {
	return r.Password != "" || r.TwoFactorCode != ""
}

// ExtractionResult captures what happened during a single archiver run.
type ExtractionResult struct {
	Succeeded  bool
	ExitStatus int
	TimedOut   bool
	Duration   time.Duration
	Err        error // ErrToolNotFound, ErrExtractionTimeout, ErrExtractionFailed or a spawn error
}

// Credentials is the answer from the password dialog.
type Credentials struct {
	Password      string
	TwoFactorCode string
	Cancelled     bool
}

// Outcome is the terminal state reached by one archive candidate.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeDropped       Outcome = "dropped"
	OutcomeDeclined      Outcome = "declined"
	OutcomeUserCancelled Outcome = "user_cancelled"
	OutcomePromptDenied  Outcome = "prompt_denied"
	OutcomeToolMissing   Outcome = "tool_missing"
	OutcomeIgnored       Outcome = "ignored" // Not an archive
)

// DaemonState is the status snapshot a running monitor publishes for the CLI.
type DaemonState struct {
	PID           int
	WatchDir      string
	ArchiverPath  string // Empty when the archiver was not found
	LogPath       string
	Paused        bool
	StartedAt     time.Time
	LastHeartbeat time.Time
	AppVersion    string
}

// ExtractionRecord is one row of extraction history.
type ExtractionRecord struct {
	BatchID    string
	Filename   string
	Path       string
	Outcome    Outcome
	ExitStatus int
	TimedOut   bool
	Attempts   int // Password prompts shown for this dispatch
	FinishedAt time.Time
}

// ControlRequest is a pending instruction left by the CLI for the running monitor.
type ControlRequest struct {
	Pause    *bool // nil when no pause change was requested
	Shutdown bool
}

// Empty reports whether there is nothing to apply.
func (c ControlRequest) Empty() bool {
	return c.Pause == nil && !c.Shutdown
}
