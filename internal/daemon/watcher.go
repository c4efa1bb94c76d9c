// Package daemon runs the download watch loop and its control surface.
package daemon

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// BatchDispatcher handles the relevant records of one batch.
type BatchDispatcher interface {
	Dispatch(ctx context.Context, events []domain.ChangeEvent) []domain.Outcome
}

// WatcherConfig holds watch loop timing.
type WatcherConfig struct {
	PollTimeout  time.Duration // Wait timeout per iteration (default 1s)
	ErrorBackoff time.Duration // Pause after a failed wait (default 5s)
}

// DefaultWatcherConfig returns default watch loop timing.
func DefaultWatcherConfig() WatcherConfig {
	return WatcherConfig{
		PollTimeout:  time.Second,
		ErrorBackoff: 5 * time.Second,
	}
}

// DirectoryWatcher waits for change batches in the session's directory and
// hands each batch to the dispatcher.
type DirectoryWatcher struct {
	config     WatcherConfig
	session    *WatchSession
	open       domain.EventSourceFactory
	dispatcher BatchDispatcher
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *zap.Logger
}

// NewDirectoryWatcher creates a watcher for session.
func NewDirectoryWatcher(
	config WatcherConfig,
	session *WatchSession,
	open domain.EventSourceFactory,
	dispatcher BatchDispatcher,
	logger *zap.Logger,
) *DirectoryWatcher {
	defaults := DefaultWatcherConfig()
	if config.PollTimeout <= 0 {
		config.PollTimeout = defaults.PollTimeout
	}
	if config.ErrorBackoff <= 0 {
		config.ErrorBackoff = defaults.ErrorBackoff
	}
	return &DirectoryWatcher{
		config:     config,
		session:    session,
		open:       open,
		dispatcher: dispatcher,
		sleep:      sleepCtx,
		logger:     logger,
	}
}

// Run blocks until the session stops or ctx is cancelled. A directory that
// cannot be opened is logged and the watcher idles instead of failing.
func (w *DirectoryWatcher) Run(ctx context.Context) error {
	dir := w.session.WatchDir()
	src, err := w.open(dir)
	if err != nil {
		w.logger.Error("failed to open downloads directory",
			zap.String("dir", dir),
			zap.Error(err))
		w.idle(ctx)
		return nil
	}
	defer src.Close()

	w.logger.Info("monitoring downloads directory", zap.String("dir", dir))

	for w.session.IsRunning() {
		if ctx.Err() != nil {
			break
		}

		batch, err := src.Wait(ctx, w.config.PollTimeout)
		if err != nil {
			if errors.Is(err, domain.ErrWaitTimeout) {
				continue
			}
			if ctx.Err() != nil {
				break
			}
			w.logger.Warn("directory wait failed",
				zap.Duration("backoff", w.config.ErrorBackoff),
				zap.Error(err))
			if w.sleep(ctx, w.config.ErrorBackoff) != nil {
				break
			}
			continue
		}

		w.handleBatch(ctx, batch)
	}

	w.logger.Info("stopped monitoring downloads directory", zap.String("dir", dir))
	return nil
}

func (w *DirectoryWatcher) handleBatch(ctx context.Context, batch domain.Batch) {
	events, err := batch.Events()
	if err != nil {
		// Records decoded before the bad one are still handled.
		w.logger.Warn("malformed change record", zap.Int("decoded", len(events)), zap.Error(err))
	}
	if len(events) == 0 {
		return
	}
	if w.session.IsPaused() {
		w.logger.Debug("paused, dropping change batch", zap.Int("events", len(events)))
		return
	}

	w.session.Process(func() {
		w.dispatcher.Dispatch(ctx, events)
	})
}

// idle keeps the process alive without a watch until it is told to stop.
func (w *DirectoryWatcher) idle(ctx context.Context) {
	for w.session.IsRunning() {
		if w.sleep(ctx, w.config.PollTimeout) != nil {
			return
		}
	}
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
