// Package usecase contains application business logic.
package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// Dispatcher turns change events into extraction attempts.
//
// Per candidate:
//
//	Detected -> StabilityCheck -> Dropped | Classified
//	Classified (non-conventional) -> AwaitingUserConfirmation -> Dropped | Confirmed
//	Confirmed -> ExtractNoCredentials -> Success | NeedsCredentials
//	NeedsCredentials -> PromptGate -> PromptDenied | PromptShown
//	PromptShown -> UserCancelled | ExtractWithCredentials
//	ExtractWithCredentials -> Success | NeedsCredentials
//
// Callers must hold the watch session lock for the whole of Dispatch.
type Dispatcher struct {
	watchDir   string
	prober     domain.StabilityProber
	classifier domain.ArchiveClassifier
	confirmer  domain.Confirmer
	extractor  domain.Extractor
	tracker    domain.AttemptTracker
	prompter   domain.CredentialPrompter
	encryption domain.EncryptionProber // optional
	store      domain.StateStore       // optional
	logger     *zap.Logger
}

// DispatcherDeps bundles the collaborators of a Dispatcher.
type DispatcherDeps struct {
	Prober     domain.StabilityProber
	Classifier domain.ArchiveClassifier
	Confirmer  domain.Confirmer
	Extractor  domain.Extractor
	Tracker    domain.AttemptTracker
	Prompter   domain.CredentialPrompter
	Encryption domain.EncryptionProber
	Store      domain.StateStore
}

// NewDispatcher creates a dispatcher for files arriving in watchDir.
func NewDispatcher(watchDir string, deps DispatcherDeps, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		watchDir:   watchDir,
		prober:     deps.Prober,
		classifier: deps.Classifier,
		confirmer:  deps.Confirmer,
		extractor:  deps.Extractor,
		tracker:    deps.Tracker,
		prompter:   deps.Prompter,
		encryption: deps.Encryption,
		store:      deps.Store,
		logger:     logger,
	}
}

// Dispatch handles every record of one batch in delivery order and returns
// the outcome reached by each relevant record.
func (d *Dispatcher) Dispatch(ctx context.Context, events []domain.ChangeEvent) []domain.Outcome {
	batchID := uuid.NewString()
	outcomes := make([]domain.Outcome, 0, len(events))

	for _, ev := range events {
		if !ev.Action.Relevant() {
			continue
		}
		if ctx.Err() != nil {
			d.logger.Info("dispatch interrupted",
				zap.String("batch_id", batchID),
				zap.Error(ctx.Err()))
			break
		}
		outcomes = append(outcomes, d.handle(ctx, batchID, ev))
	}
	return outcomes
}

func (d *Dispatcher) handle(ctx context.Context, batchID string, ev domain.ChangeEvent) domain.Outcome {
	log := d.logger.With(
		zap.String("batch_id", batchID),
		zap.String("file", ev.Filename),
		zap.Stringer("action", ev.Action))
	path := filepath.Join(d.watchDir, ev.Filename)

	if !d.prober.WaitStable(ctx, path) {
		// A file that vanished is no longer pending.
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			d.tracker.Clear(ev.Filename)
		}
		return domain.OutcomeDropped
	}

	if !d.classifier.IsArchive(ev.Filename) {
		log.Debug("ignoring non-archive file")
		return domain.OutcomeIgnored
	}

	candidate := domain.ArchiveCandidate{
		Path:           path,
		Filename:       ev.Filename,
		IsConventional: d.classifier.IsConventional(ev.Filename),
	}
	log.Info("detected archive", zap.Bool("conventional", candidate.IsConventional))

	rec := domain.ExtractionRecord{
		BatchID:  batchID,
		Filename: candidate.Filename,
		Path:     candidate.Path,
	}
	outcome := d.process(ctx, log, candidate, &rec)
	rec.Outcome = outcome
	rec.FinishedAt = time.Now()
	d.record(log, rec)
	return outcome
}

func (d *Dispatcher) process(ctx context.Context, log *zap.Logger, c domain.ArchiveCandidate, rec *domain.ExtractionRecord) domain.Outcome {
	if !c.IsConventional && !d.confirmer.Confirm(ctx, c) {
		log.Info("user declined to extract")
		return domain.OutcomeDeclined
	}

	result := d.extractor.Extract(ctx, domain.ExtractionRequest{ArchivePath: c.Path})
	d.capture(rec, result)
	if result.Succeeded {
		return domain.OutcomeSuccess
	}
	if errors.Is(result.Err, domain.ErrToolNotFound) {
		return domain.OutcomeToolMissing
	}

	if d.stopping(ctx, log) {
		return domain.OutcomeDropped
	}

	// Any failure of the plain run is treated as "needs a password".
	d.tracker.MarkPending(c.Filename)
	hint := d.encryptionHint(log, c.Path)

	for {
		if d.stopping(ctx, log) {
			return domain.OutcomeDropped
		}
		if !d.tracker.ShouldPrompt(ctx, c.Filename) {
			return domain.OutcomePromptDenied
		}
		d.tracker.RecordAttempt(c.Filename)
		rec.Attempts++

		creds := d.prompter.PromptCredentials(ctx, c.Filename, hint)
		// The code alone never unlocks anything; no password means cancel.
		if creds.Cancelled || creds.Password == "" {
			log.Info("password prompt cancelled",
				zap.Int("attempt", d.tracker.Count(c.Filename)),
				zap.Error(domain.ErrUserCancelled))
			return domain.OutcomeUserCancelled
		}

		result = d.extractor.Extract(ctx, domain.ExtractionRequest{
			ArchivePath:   c.Path,
			Password:      creds.Password,
			TwoFactorCode: creds.TwoFactorCode,
		})
		d.capture(rec, result)
		if result.Succeeded {
			return domain.OutcomeSuccess
		}
		if errors.Is(result.Err, domain.ErrToolNotFound) {
			return domain.OutcomeToolMissing
		}
	}
}

// stopping reports whether the service is shutting down. An extraction
// already running finishes first; no new prompt is shown afterwards.
func (d *Dispatcher) stopping(ctx context.Context, log *zap.Logger) bool {
	if ctx.Err() == nil {
		return false
	}
	log.Info("service stopping, leaving archive for the next run")
	return true
}

func (d *Dispatcher) capture(rec *domain.ExtractionRecord, result domain.ExtractionResult) {
	rec.ExitStatus = result.ExitStatus
	rec.TimedOut = result.TimedOut
}

// encryptionHint returns prompt text when the archive headers say it is encrypted.
func (d *Dispatcher) encryptionHint(log *zap.Logger, path string) string {
	if d.encryption == nil {
		return ""
	}
	encrypted, known := d.encryption.Probe(path)
	if !known {
		return ""
	}
	log.Debug("encryption probe", zap.Bool("encrypted", encrypted))
	if encrypted {
		return "The archive contains encrypted entries."
	}
	return "The archive does not look encrypted; extraction may have failed for another reason."
}

func (d *Dispatcher) record(log *zap.Logger, rec domain.ExtractionRecord) {
	if d.store == nil || rec.Outcome == domain.OutcomeIgnored {
		return
	}
	if err := d.store.RecordExtraction(rec); err != nil {
		log.Warn("failed to record extraction history", zap.Error(err))
	}
}
