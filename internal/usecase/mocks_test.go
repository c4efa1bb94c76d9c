package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// mockNotifier implements domain.Notifier for testing
type mockNotifier struct {
	mu     sync.Mutex
	titles []string
	bodies []string
	err    error
}

func (m *mockNotifier) Notify(ctx context.Context, title, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = append(m.titles, title)
	m.bodies = append(m.bodies, body)
	return m.err
}

// mockOpener implements domain.FileOpener for testing.
// It fails failures times before succeeding; failures < 0 never succeeds.
type mockOpener struct {
	failures int
	calls    int
	err      error
}

func (m *mockOpener) TryOpenShared(path string) error {
	m.calls++
	if m.failures < 0 || m.calls <= m.failures {
		return m.err
	}
	return nil
}

// mockRunner implements domain.ArchiverRunner for testing
type mockRunner struct {
	path    string
	results []domain.ExtractionResult
	args    [][]string
	timeout time.Duration
}

func (m *mockRunner) Path() string { return m.path }

func (m *mockRunner) Run(ctx context.Context, args []string, timeout time.Duration) domain.ExtractionResult {
	m.args = append(m.args, args)
	m.timeout = timeout
	if len(m.results) == 0 {
		return domain.ExtractionResult{Succeeded: true}
	}
	r := m.results[0]
	if len(m.results) > 1 {
		m.results = m.results[1:]
	}
	return r
}

// mockProber implements domain.StabilityProber for testing
type mockProber struct {
	stable bool
	paths  []string
}

func (m *mockProber) WaitStable(ctx context.Context, path string) bool {
	m.paths = append(m.paths, path)
	return m.stable
}

// mockConfirmer implements domain.Confirmer for testing
type mockConfirmer struct {
	answer bool
	asked  []string
}

func (m *mockConfirmer) Confirm(ctx context.Context, c domain.ArchiveCandidate) bool {
	m.asked = append(m.asked, c.Filename)
	return m.answer
}

// mockExtractor implements domain.Extractor for testing.
// Extraction succeeds only for the configured password.
type mockExtractor struct {
	password    string // "" means the archive is not protected
	missingTool bool
	requests    []domain.ExtractionRequest
	onSuccess   func(filename string)
	onRun       func() // called while the run is in flight
}

func (m *mockExtractor) Extract(ctx context.Context, req domain.ExtractionRequest) domain.ExtractionResult {
	m.requests = append(m.requests, req)
	if m.onRun != nil {
		m.onRun()
	}
	if m.missingTool {
		return domain.ExtractionResult{ExitStatus: -1, Err: domain.ErrToolNotFound}
	}
	if req.Password == m.password {
		if m.onSuccess != nil {
			m.onSuccess(req.ArchivePath)
		}
		return domain.ExtractionResult{Succeeded: true}
	}
	return domain.ExtractionResult{ExitStatus: 1, Err: domain.ErrExtractionFailed}
}

// mockPrompter implements domain.CredentialPrompter for testing.
// Answers are returned in order; once exhausted it cancels.
type mockPrompter struct {
	answers []domain.Credentials
	hints   []string
	calls   int
}

func (m *mockPrompter) PromptCredentials(ctx context.Context, filename, hint string) domain.Credentials {
	m.calls++
	m.hints = append(m.hints, hint)
	if len(m.answers) == 0 {
		return domain.Credentials{Cancelled: true}
	}
	a := m.answers[0]
	m.answers = m.answers[1:]
	return a
}

// mockEncryption implements domain.EncryptionProber for testing
type mockEncryption struct {
	encrypted bool
	known     bool
}

func (m *mockEncryption) Probe(path string) (bool, bool) {
	return m.encrypted, m.known
}

// mockStateStore implements domain.StateStore for testing
type mockStateStore struct {
	records   []domain.ExtractionRecord
	recordErr error
}

func (m *mockStateStore) RegisterDaemon(state domain.DaemonState) error { return nil }
func (m *mockStateStore) UpdateHeartbeat() error                        { return nil }
func (m *mockStateStore) SetPaused(paused bool) error                   { return nil }
func (m *mockStateStore) GetState() (*domain.DaemonState, error)        { return nil, nil }
func (m *mockStateStore) ClearDaemon() error                            { return nil }
func (m *mockStateStore) RequestPause(paused bool) error                { return nil }
func (m *mockStateStore) RequestShutdown() error                        { return nil }
func (m *mockStateStore) TakeControl() (domain.ControlRequest, error) {
	return domain.ControlRequest{}, nil
}

func (m *mockStateStore) RecordExtraction(rec domain.ExtractionRecord) error {
	m.records = append(m.records, rec)
	return m.recordErr
}

func (m *mockStateStore) RecentExtractions(limit int) ([]domain.ExtractionRecord, error) {
	return m.records, nil
}

func (m *mockStateStore) Close() error { return nil }
