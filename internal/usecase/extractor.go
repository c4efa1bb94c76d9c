package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// DefaultExtractionTimeout bounds a single archiver run.
const DefaultExtractionTimeout = 300 * time.Second

// BuildArchiverArgs returns the PeaZip command line for req: extract into a
// sibling folder, overwrite existing files, and pass credentials only when set.
func BuildArchiverArgs(req domain.ExtractionRequest) []string {
	args := []string{"-ext2folder", "-o+"}
	if req.Password != "" {
		args = append(args, "-pwd", req.Password)
	}
	if req.TwoFactorCode != "" {
		args = append(args, "-2fa", req.TwoFactorCode)
	}
	return append(args, req.ArchivePath)
}

// ExtractorImpl implements domain.Extractor on top of the external archiver.
type ExtractorImpl struct {
	runner   domain.ArchiverRunner
	tracker  domain.AttemptTracker
	notifier domain.Notifier
	timeout  time.Duration
	logger   *zap.Logger
}

// NewExtractor creates a new extraction invoker.
func NewExtractor(
	runner domain.ArchiverRunner,
	tracker domain.AttemptTracker,
	notifier domain.Notifier,
	timeout time.Duration,
	logger *zap.Logger,
) *ExtractorImpl {
	if timeout <= 0 {
		timeout = DefaultExtractionTimeout
	}
	return &ExtractorImpl{
		runner:   runner,
		tracker:  tracker,
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
	}
}

// Extract runs the archiver once. It never retries on its own.
func (e *ExtractorImpl) Extract(ctx context.Context, req domain.ExtractionRequest) domain.ExtractionResult {
	filename := filepath.Base(req.ArchivePath)

	if e.runner.Path() == "" {
		e.logger.Error("archiver not found at expected locations",
			zap.String("file", filename),
			zap.Error(domain.ErrToolNotFound))
		e.notify(ctx, "Auto Unzip - Error", "PeaZip not found. Please install PeaZip.")
		return domain.ExtractionResult{ExitStatus: -1, Err: domain.ErrToolNotFound}
	}

	// Passwords never reach the log.
	e.logger.Info("executing archiver",
		zap.String("archiver", e.runner.Path()),
		zap.String("archive", req.ArchivePath),
		zap.Bool("password", req.Password != ""),
		zap.Bool("two_factor", req.TwoFactorCode != ""))

	result := e.runner.Run(ctx, BuildArchiverArgs(req), e.timeout)

	switch {
	case result.Succeeded:
		e.tracker.Clear(filename)
		e.logger.Info("successfully extracted",
			zap.String("file", filename),
			zap.Duration("duration", result.Duration))
		e.notify(ctx, "Auto Unzip - Success", "Extracted: "+filename)
	case result.TimedOut:
		e.logger.Warn("extraction timed out",
			zap.String("archive", req.ArchivePath),
			zap.Duration("timeout", e.timeout))
	case errors.Is(result.Err, domain.ErrExtractionFailed):
		e.logger.Warn("extraction failed",
			zap.String("archive", req.ArchivePath),
			zap.Int("exit_code", result.ExitStatus))
	default:
		e.logger.Error("failed to start archiver",
			zap.String("archive", req.ArchivePath),
			zap.Error(result.Err))
	}
	return result
}

func (e *ExtractorImpl) notify(ctx context.Context, title, body string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, title, body); err != nil {
		e.logger.Warn("failed to send notification", zap.Error(err))
	}
}

// Ensure ExtractorImpl implements domain.Extractor.
var _ domain.Extractor = (*ExtractorImpl)(nil)
