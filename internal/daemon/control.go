package daemon

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
)

const notifyTitle = "Auto Unzip Service"

// ControlConfig holds control loop timing.
type ControlConfig struct {
	HeartbeatInterval time.Duration // How often the state row is refreshed
	PollInterval      time.Duration // How often pending CLI requests are applied
}

// DefaultControlConfig returns default control loop timing.
func DefaultControlConfig() ControlConfig {
	return ControlConfig{
		HeartbeatInterval: 5 * time.Second,
		PollInterval:      time.Second,
	}
}

// Status is the in-process status snapshot.
type Status struct {
	Running      bool
	Paused       bool
	WatchDir     string
	ArchiverPath string // Empty when not found
	LogPath      string
}

// Controller is the control surface of a running monitor: pause toggle,
// shutdown and status. Requests from other processes arrive through the
// state store and are applied by Run.
type Controller struct {
	config       ControlConfig
	session      *WatchSession
	store        domain.StateStore // optional
	notifier     domain.Notifier
	archiverPath string
	logPath      string
	logger       *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewController creates a controller for session.
func NewController(
	config ControlConfig,
	session *WatchSession,
	store domain.StateStore,
	notifier domain.Notifier,
	archiverPath, logPath string,
	logger *zap.Logger,
) *Controller {
	defaults := DefaultControlConfig()
	if config.HeartbeatInterval <= 0 {
		config.HeartbeatInterval = defaults.HeartbeatInterval
	}
	if config.PollInterval <= 0 {
		config.PollInterval = defaults.PollInterval
	}
	return &Controller{
		config:       config,
		session:      session,
		store:        store,
		notifier:     notifier,
		archiverPath: archiverPath,
		logPath:      logPath,
		logger:       logger,
	}
}

// Run applies pending control requests and refreshes the heartbeat until ctx
// is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	if c.store == nil {
		<-ctx.Done()
		return nil
	}

	heartbeatTicker := time.NewTicker(c.config.HeartbeatInterval)
	pollTicker := time.NewTicker(c.config.PollInterval)
	defer func() {
		heartbeatTicker.Stop()
		pollTicker.Stop()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-heartbeatTicker.C:
			if err := c.store.UpdateHeartbeat(); err != nil {
				c.logger.Warn("failed to update heartbeat", zap.Error(err))
			}

		case <-pollTicker.C:
			c.applyPending(ctx)
		}
	}
}

func (c *Controller) applyPending(ctx context.Context) {
	req, err := c.store.TakeControl()
	if err != nil {
		c.logger.Warn("failed to read control requests", zap.Error(err))
		return
	}
	if req.Empty() {
		return
	}
	if req.Pause != nil {
		c.setPaused(ctx, *req.Pause)
	}
	if req.Shutdown {
		c.logger.Info("shutdown requested")
		c.Shutdown()
	}
}

// Pause stops dispatching new batches. A batch already being processed
// finishes first.
func (c *Controller) Pause(ctx context.Context) { c.setPaused(ctx, true) }

// Resume restarts dispatching.
func (c *Controller) Resume(ctx context.Context) { c.setPaused(ctx, false) }

func (c *Controller) setPaused(ctx context.Context, paused bool) {
	if c.session.SetPaused(paused) == paused {
		return
	}

	msg, body := "Service resumed", "Monitoring Resumed"
	if paused {
		msg, body = "Service paused", "Monitoring Paused"
	}
	c.logger.Info(msg)

	if c.store != nil {
		if err := c.store.SetPaused(paused); err != nil {
			c.logger.Warn("failed to publish paused flag", zap.Error(err))
		}
	}
	if c.notifier != nil {
		if err := c.notifier.Notify(ctx, notifyTitle, body); err != nil {
			c.logger.Warn("failed to send notification", zap.Error(err))
		}
	}
}

// Shutdown stops the watch loop and cancels the service context.
func (c *Controller) Shutdown() {
	c.session.Stop()
	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Status returns the current snapshot.
func (c *Controller) Status() Status {
	return Status{
		Running:      c.session.IsRunning(),
		Paused:       c.session.IsPaused(),
		WatchDir:     c.session.WatchDir(),
		ArchiverPath: c.archiverPath,
		LogPath:      c.logPath,
	}
}

func (c *Controller) bind(cancel context.CancelFunc) {
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
}
