package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/daemon"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/infra"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/logging"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/policy"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/usecase"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Monitor the Downloads folder in the foreground",
	Long: `Monitors the Downloads folder until interrupted. With a terminal attached,
password prompts and confirmations are answered on the terminal.

--service is used by the installed launchd, systemd or Windows service
definitions: no terminal output and no interactive questions.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start monitoring in the background",
	Long: `Starts a detached monitor. Password protected archives cannot be
prompted for in the background; use 'autounzip run' in a terminal for those.`,
	Args: cobra.NoArgs,
	RunE: runStart,
}

var serviceMode bool

func init() {
	runCmd.Flags().BoolVar(&serviceMode, "service", false, "Run non-interactively under a service manager")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	cfg := env.cfg

	asService := serviceMode || daemon.IsWindowsService()
	policyValue, err := infra.ParseConfirmPolicy(cfg.Extraction.ConfirmNonConventional)
	if err != nil {
		return err
	}

	logger, logPath, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		LogDir: env.logDir,
		Stderr: !asService,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	prompter := infra.NewTerminalPrompter(policyValue, logger)
	archiverPath := infra.NewArchiverLocator(cfg.Archiver.Path).Locate()
	if archiverPath == "" {
		logger.Warn("PeaZip not found", zap.Error(domain.ErrToolNotFound))
		if !asService && prompter.Interactive() && !prompter.Ask(
			"PeaZip was not found on your system. Install it from https://peazip.github.io/ before using autounzip.\nDo you want to continue anyway?") {
			return errDeclined
		}
	}

	notifier := infra.NewMultiNotifier(
		infra.NewLogNotifier(logger),
		infra.NewNtfyNotifier(cfg.Notifications.NtfyTopic, cfg.NotifyTimeout()),
	)

	// The state store is optional: without it the monitor still extracts,
	// but status and remote control are unavailable.
	var store domain.StateStore
	if s, err := infra.OpenStateStore(env.dataDir); err != nil {
		logger.Warn("state store unavailable", zap.String("dir", env.dataDir), zap.Error(err))
	} else {
		store = s
		defer s.Close()
	}

	pm := infra.NewProcessManager()
	tracker := usecase.NewAttemptTracker(cfg.Extraction.MaxPasswordAttempts, notifier, logger)
	extractor := usecase.NewExtractor(
		infra.NewArchiverRunner(archiverPath, pm, logger),
		tracker, notifier, cfg.ArchiverTimeout(), logger)
	prober := usecase.NewStabilityProber(usecase.StabilityConfig{
		Attempts: cfg.Watcher.StabilityAttempts,
		Interval: cfg.StabilityInterval(),
	}, infra.NewSharedReadOpener(), logger)

	dispatcher := usecase.NewDispatcher(cfg.Paths.WatchDir, usecase.DispatcherDeps{
		Prober:     prober,
		Classifier: policy.NewDefaultClassifier(),
		Confirmer:  prompter,
		Extractor:  extractor,
		Tracker:    tracker,
		Prompter:   prompter,
		Encryption: infra.NewEncryptionProber(logger),
		Store:      store,
	}, logger)

	session := daemon.NewWatchSession(cfg.Paths.WatchDir, tracker)
	watcher := daemon.NewDirectoryWatcher(daemon.WatcherConfig{
		PollTimeout:  cfg.PollTimeout(),
		ErrorBackoff: cfg.ErrorBackoff(),
	}, session, infra.NewDirectoryEventSource, dispatcher, logger)
	controller := daemon.NewController(daemon.ControlConfig{
		HeartbeatInterval: cfg.HeartbeatInterval(),
		PollInterval:      cfg.ControlPollInterval(),
	}, session, store, notifier, archiverPath, logPath, logger)

	svc := daemon.NewService(daemon.ServiceConfig{
		DataDir:      env.dataDir,
		ArchiverPath: archiverPath,
		LogPath:      logPath,
		AppVersion:   Version,
	}, session, watcher, controller, store, pm, logger)

	if daemon.IsWindowsService() {
		return daemon.RunWindowsService(infra.ServiceName, svc, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !asService {
		fmt.Fprintf(cmd.OutOrStdout(), "Monitoring %s (Ctrl+C to stop)\n", cfg.Paths.WatchDir)
	}
	if err := svc.Run(ctx); err != nil {
		if errors.Is(err, domain.ErrAlreadyRunning) {
			return fmt.Errorf("%w (see 'autounzip status')", err)
		}
		return err
	}
	return nil
}

func runStart(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	pm := infra.NewProcessManager()

	if state, _ := readState(env.dataDir); state != nil && pm.IsRunning(state.PID) {
		fmt.Fprintln(cmd.OutOrStdout(), "autounzip is already running")
		return nil
	}

	execPath, err := daemon.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	runArgs := []string{"run", "--service"}
	if configPath != "" {
		runArgs = append(runArgs, "--config", env.cfgPath)
	}
	pid, err := daemon.StartDetached(execPath, runArgs...)
	if err != nil {
		return err
	}

	// Give the monitor a moment to register.
	time.Sleep(500 * time.Millisecond)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n=== autounzip Started ===")
	fmt.Fprintf(out, "PID: %d\n", pid)
	fmt.Fprintf(out, "Monitoring: %s\n", env.cfg.Paths.WatchDir)
	fmt.Fprintf(out, "Log directory: %s\n", env.logDir)
	fmt.Fprintln(out, "=========================")
	return nil
}
