package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

// LockFileName is the single-instance lock inside the data directory.
const LockFileName = "autounzip.lock"

// ServiceConfig describes one monitor instance.
type ServiceConfig struct {
	DataDir      string
	ArchiverPath string
	LogPath      string
	AppVersion   string
}

// Service ties the watch loop and the control loop into one lifecycle and
// enforces single-instance execution.
type Service struct {
	config     ServiceConfig
	session    *WatchSession
	watcher    *DirectoryWatcher
	controller *Controller
	store      domain.StateStore // optional
	pm         domain.ProcessManager
	lock       *flock.Flock
	logger     *zap.Logger
}

// NewService assembles a service from its parts.
func NewService(
	config ServiceConfig,
	session *WatchSession,
	watcher *DirectoryWatcher,
	controller *Controller,
	store domain.StateStore,
	pm domain.ProcessManager,
	logger *zap.Logger,
) *Service {
	return &Service{
		config:     config,
		session:    session,
		watcher:    watcher,
		controller: controller,
		store:      store,
		pm:         pm,
		lock:       flock.New(filepath.Join(config.DataDir, LockFileName)),
		logger:     logger,
	}
}

// Controller returns the in-process control surface.
func (s *Service) Controller() *Controller { return s.controller }

// Run blocks until the monitor is shut down or ctx is cancelled.
// Returns domain.ErrAlreadyRunning when another monitor holds the lock.
func (s *Service) Run(ctx context.Context) error {
	if err := os.MkdirAll(s.config.DataDir, 0o700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return domain.ErrAlreadyRunning
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release lock", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.controller.bind(cancel)

	s.register()
	st := s.controller.Status()
	s.logger.Info("Auto Unzip Service started",
		zap.String("watch_dir", st.WatchDir),
		zap.String("archiver", st.ArchiverPath),
		zap.String("log", st.LogPath),
		zap.String("version", s.config.AppVersion))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.controller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("control loop stopped", zap.Error(err))
		}
	}()

	runErr := s.watcher.Run(ctx)
	s.session.Stop()
	cancel()
	wg.Wait()

	s.unregister()
	var pending int
	s.session.Process(func() { pending = s.session.Tracker().Pending() })
	s.logger.Info("Auto Unzip Service stopped", zap.Int("pending_archives", pending))
	return runErr
}

func (s *Service) register() {
	if s.store == nil {
		return
	}
	now := time.Now()
	err := s.store.RegisterDaemon(domain.DaemonState{
		PID:           s.pm.GetCurrentPID(),
		WatchDir:      s.session.WatchDir(),
		ArchiverPath:  s.config.ArchiverPath,
		LogPath:       s.config.LogPath,
		Paused:        s.session.IsPaused(),
		StartedAt:     now,
		LastHeartbeat: now,
		AppVersion:    s.config.AppVersion,
	})
	if err != nil {
		s.logger.Warn("failed to register monitor state", zap.Error(err))
	}
}

func (s *Service) unregister() {
	if s.store == nil {
		return
	}
	if err := s.store.ClearDaemon(); err != nil {
		s.logger.Warn("failed to clear monitor state", zap.Error(err))
	}
}
