package daemon

import (
	"sync"
	"sync/atomic"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// WatchSession is the state shared by the watch loop and the control surface.
// The running and paused flags are read by the loop without the lock; the
// mutex serializes batch processing and every tracker mutation.
type WatchSession struct {
	watchDir string
	running  atomic.Bool
	paused   atomic.Bool
	mu       sync.Mutex
	tracker  domain.AttemptTracker
}

// NewWatchSession creates a running, unpaused session for watchDir.
func NewWatchSession(watchDir string, tracker domain.AttemptTracker) *WatchSession {
	s := &WatchSession{watchDir: watchDir, tracker: tracker}
	s.running.Store(true)
	return s
}

// WatchDir returns the watched directory.
func (s *WatchSession) WatchDir() string { return s.watchDir }

// Tracker returns the attempt tracker. Only use it inside Process.
func (s *WatchSession) Tracker() domain.AttemptTracker { return s.tracker }

// IsRunning reports whether the loop should keep going.
func (s *WatchSession) IsRunning() bool { return s.running.Load() }

// Stop asks the loop to exit after the current wait.
func (s *WatchSession) Stop() { s.running.Store(false) }

// IsPaused reports whether decoded events are currently dropped.
func (s *WatchSession) IsPaused() bool { return s.paused.Load() }

// SetPaused stores the paused flag and returns the previous value.
func (s *WatchSession) SetPaused(paused bool) bool { return s.paused.Swap(paused) }

// Process runs fn inside the session's critical section.
func (s *WatchSession) Process(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}
