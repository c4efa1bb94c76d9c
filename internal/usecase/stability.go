package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// StabilityConfig holds the probe schedule.
type StabilityConfig struct {
	Attempts int           // Open attempts before giving up (default 10)
	Interval time.Duration // Delay before each attempt (default 1s)
}

// DefaultStabilityConfig returns the default probe schedule.
func DefaultStabilityConfig() StabilityConfig {
	return StabilityConfig{
		Attempts: 10,
		Interval: time.Second,
	}
}

// StabilityProberImpl implements domain.StabilityProber.
// A successful shared-read open is taken as proof the writer is done. Writers
// that do not lock the file can still be appending afterwards; that is
// accepted.
type StabilityProberImpl struct {
	config StabilityConfig
	opener domain.FileOpener
	sleep  func(ctx context.Context, d time.Duration) error
	logger *zap.Logger
}

// NewStabilityProber creates a prober using opener for each attempt.
func NewStabilityProber(config StabilityConfig, opener domain.FileOpener, logger *zap.Logger) *StabilityProberImpl {
	if config.Attempts <= 0 {
		config.Attempts = DefaultStabilityConfig().Attempts
	}
	return &StabilityProberImpl{
		config: config,
		opener: opener,
		sleep:  sleepCtx,
		logger: logger,
	}
}

// WaitStable waits between attempts and returns true on the first
// successful open. Returns false after the last failed attempt or when ctx
// is done.
func (p *StabilityProberImpl) WaitStable(ctx context.Context, path string) bool {
	var lastErr error
	for i := 0; i < p.config.Attempts; i++ {
		if err := p.sleep(ctx, p.config.Interval); err != nil {
			p.logger.Debug("stability probe interrupted", zap.String("path", path))
			return false
		}

		lastErr = p.opener.TryOpenShared(path)
		if lastErr == nil {
			p.logger.Debug("file is stable",
				zap.String("path", path),
				zap.Int("attempt", i+1))
			return true
		}
	}

	p.logger.Info("dropping file that never became stable",
		zap.String("path", path),
		zap.Int("attempts", p.config.Attempts),
		zap.NamedError("last_error", lastErr),
		zap.Error(domain.ErrStabilityTimeout))
	return false
}

// sleepCtx sleeps for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure StabilityProberImpl implements domain.StabilityProber.
var _ domain.StabilityProber = (*StabilityProberImpl)(nil)
