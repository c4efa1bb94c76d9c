package daemon

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// fakeBatch is a decoded batch.
type fakeBatch struct {
	events []domain.ChangeEvent
	err    error
}

func (b fakeBatch) Events() ([]domain.ChangeEvent, error) { return b.events, b.err }

// waitResult is one scripted return of fakeSource.Wait.
type waitResult struct {
	batch domain.Batch
	err   error
}

// fakeSource replays scripted results, then reports timeouts until closed.
type fakeSource struct {
	mu      sync.Mutex
	results []waitResult
	waits   int
	closed  bool
}

func (s *fakeSource) Wait(ctx context.Context, _ time.Duration) (domain.Batch, error) {
	s.mu.Lock()
	s.waits++
	if len(s.results) > 0 {
		r := s.results[0]
		s.results = s.results[1:]
		s.mu.Unlock()
		return r.batch, r.err
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Millisecond):
		return nil, domain.ErrWaitTimeout
	}
}

func (s *fakeSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSource) remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

// recordingDispatcher remembers every batch it was handed.
type recordingDispatcher struct {
	mu      sync.Mutex
	batches [][]domain.ChangeEvent
	onCall  func()
}

func (d *recordingDispatcher) Dispatch(_ context.Context, events []domain.ChangeEvent) []domain.Outcome {
	d.mu.Lock()
	d.batches = append(d.batches, events)
	cb := d.onCall
	d.mu.Unlock()
	if cb != nil {
		cb()
	}
	return nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.batches)
}

type nopTracker struct{}

func (nopTracker) ShouldPrompt(context.Context, string) bool { return true }
func (nopTracker) RecordAttempt(string)                      {}
func (nopTracker) MarkPending(string)                        {}
func (nopTracker) Count(string) int                          { return 0 }
func (nopTracker) Has(string) bool                           { return false }
func (nopTracker) Clear(string)                              {}
func (nopTracker) Pending() int                              { return 0 }

type mockNotifier struct {
	mu     sync.Mutex
	bodies []string
}

func (n *mockNotifier) Notify(_ context.Context, _, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bodies = append(n.bodies, body)
	return nil
}

func (n *mockNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.bodies...)
}

// mockStateStore is an in-memory domain.StateStore.
type mockStateStore struct {
	mu         sync.Mutex
	state      *domain.DaemonState
	control    domain.ControlRequest
	heartbeats int
	takeErr    error
}

func (m *mockStateStore) RegisterDaemon(state domain.DaemonState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = &state
	m.control = domain.ControlRequest{}
	return nil
}

func (m *mockStateStore) UpdateHeartbeat() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return errors.New("daemon not registered")
	}
	m.heartbeats++
	m.state.LastHeartbeat = time.Now()
	return nil
}

func (m *mockStateStore) SetPaused(paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return errors.New("daemon not registered")
	}
	m.state.Paused = paused
	return nil
}

func (m *mockStateStore) GetState() (*domain.DaemonState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return nil, nil
	}
	s := *m.state
	return &s, nil
}

func (m *mockStateStore) ClearDaemon() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = nil
	return nil
}

func (m *mockStateStore) RequestPause(paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.control.Pause = &paused
	return nil
}

func (m *mockStateStore) RequestShutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.control.Shutdown = true
	return nil
}

func (m *mockStateStore) TakeControl() (domain.ControlRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.takeErr != nil {
		return domain.ControlRequest{}, m.takeErr
	}
	req := m.control
	m.control = domain.ControlRequest{}
	return req, nil
}

func (m *mockStateStore) RecordExtraction(domain.ExtractionRecord) error { return nil }

func (m *mockStateStore) RecentExtractions(int) ([]domain.ExtractionRecord, error) {
	return nil, nil
}

func (m *mockStateStore) Close() error { return nil }

type mockProcessManager struct{}

func (mockProcessManager) KillTree(int) error { return nil }
func (mockProcessManager) IsRunning(int) bool { return true }
func (mockProcessManager) GetCurrentPID() int { return 4242 }

var (
	_ domain.EventSource    = (*fakeSource)(nil)
	_ domain.AttemptTracker = nopTracker{}
	_ domain.StateStore     = (*mockStateStore)(nil)
	_ domain.ProcessManager = mockProcessManager{}
)
