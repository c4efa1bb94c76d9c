//go:build !windows

package infra

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// DirectoryEventSource implements domain.EventSource with fsnotify.
// inotify reports the target of a rename into the directory as a create, so
// browser rename-on-complete downloads arrive as ActionCreated.
type DirectoryEventSource struct {
	dir     string
	watcher *fsnotify.Watcher
}

// NewDirectoryEventSource starts watching dir (not recursive).
func NewDirectoryEventSource(dir string) (domain.EventSource, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWatchUnavailable, err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrWatchUnavailable, dir, err)
	}
	return &DirectoryEventSource{dir: dir, watcher: w}, nil
}

// Wait blocks for the first event up to timeout, then collects whatever
// else is already queued into the same batch.
func (s *DirectoryEventSource) Wait(ctx context.Context, timeout time.Duration) (domain.Batch, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var batch eventBatch
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, domain.ErrWaitTimeout
	case err, ok := <-s.watcher.Errors:
		if !ok {
			return nil, fmt.Errorf("%w: watcher closed", domain.ErrWaitFailure)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrWaitFailure, err)
	case ev, ok := <-s.watcher.Events:
		if !ok {
			return nil, fmt.Errorf("%w: watcher closed", domain.ErrWaitFailure)
		}
		batch = append(batch, s.convert(ev))
	}

	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return batch, nil
			}
			batch = append(batch, s.convert(ev))
		default:
			return batch, nil
		}
	}
}

func (s *DirectoryEventSource) convert(ev fsnotify.Event) domain.ChangeEvent {
	name, err := filepath.Rel(s.dir, ev.Name)
	if err != nil {
		name = filepath.Base(ev.Name)
	}
	action := domain.ActionOther
	if ev.Has(fsnotify.Create) {
		action = domain.ActionCreated
	}
	return domain.ChangeEvent{Action: action, Filename: name}
}

// Close stops the watcher.
func (s *DirectoryEventSource) Close() error {
	return s.watcher.Close()
}

// eventBatch is an already decoded batch.
type eventBatch []domain.ChangeEvent

func (b eventBatch) Events() ([]domain.ChangeEvent, error) {
	return b, nil
}

// Ensure DirectoryEventSource implements domain.EventSource.
var _ domain.EventSource = (*DirectoryEventSource)(nil)
