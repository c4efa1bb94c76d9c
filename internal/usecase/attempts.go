package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// DefaultMaxPasswordAttempts is how many times the user is asked per file.
const DefaultMaxPasswordAttempts = 3

// AttemptTrackerImpl implements domain.AttemptTracker.
//
// It is not safe for concurrent use on its own: every call happens inside the
// watch session's processing lock, which is the single critical section for
// dispatch state.
type AttemptTrackerImpl struct {
	max      int
	counts   map[string]int
	notifier domain.Notifier
	logger   *zap.Logger
}

// NewAttemptTracker creates a tracker allowing max prompts per file.
func NewAttemptTracker(max int, notifier domain.Notifier, logger *zap.Logger) *AttemptTrackerImpl {
	if max <= 0 {
		max = DefaultMaxPasswordAttempts
	}
	return &AttemptTrackerImpl{
		max:      max,
		counts:   make(map[string]int),
		notifier: notifier,
		logger:   logger,
	}
}

// ShouldPrompt returns false once the file has used up its prompts, and
// raises an error notification in that case.
func (t *AttemptTrackerImpl) ShouldPrompt(ctx context.Context, filename string) bool {
	if t.counts[filename] < t.max {
		return true
	}

	t.logger.Warn("password prompt blocked",
		zap.String("file", filename),
		zap.Int("attempts", t.counts[filename]),
		zap.Error(domain.ErrMaxAttemptsExceeded))
	if t.notifier != nil {
		if err := t.notifier.Notify(ctx, "Auto Unzip - Error",
			"Maximum password attempts exceeded for: "+filename); err != nil {
			t.logger.Warn("failed to send notification", zap.Error(err))
		}
	}
	return false
}

// RecordAttempt increments the count before a prompt is shown.
// The count never exceeds the maximum.
func (t *AttemptTrackerImpl) RecordAttempt(filename string) {
	if t.counts[filename] >= t.max {
		return
	}
	t.counts[filename]++
}

// MarkPending creates an entry on the first extraction failure.
func (t *AttemptTrackerImpl) MarkPending(filename string) {
	if _, ok := t.counts[filename]; !ok {
		t.counts[filename] = 0
	}
}

// Count returns prompts used for filename.
func (t *AttemptTrackerImpl) Count(filename string) int {
	return t.counts[filename]
}

// Has reports whether filename has an entry.
func (t *AttemptTrackerImpl) Has(filename string) bool {
	_, ok := t.counts[filename]
	return ok
}

// Clear removes the entry.
func (t *AttemptTrackerImpl) Clear(filename string) {
	delete(t.counts, filename)
}

// Pending returns the number of tracked files.
func (t *AttemptTrackerImpl) Pending() int {
	return len(t.counts)
}

// Ensure AttemptTrackerImpl implements domain.AttemptTracker.
var _ domain.AttemptTracker = (*AttemptTrackerImpl)(nil)
