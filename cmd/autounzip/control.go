package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/domain"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/infra"
)

var errNotRunning = errors.New("autounzip is not running")

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show monitor status and recent extractions",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause monitoring (new downloads are ignored)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return requestPause(cmd, true)
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume monitoring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return requestPause(cmd, false)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running monitor",
	Args:  cobra.NoArgs,
	RunE:  runStop,
}

var (
	historyLimit int
	stopTimeout  time.Duration
)

func init() {
	statusCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of recent extractions to show")
	stopCmd.Flags().DurationVar(&stopTimeout, "timeout", 10*time.Second, "How long to wait for the monitor to exit")
}

// readState returns the published monitor state, nil when none is registered.
func readState(dataDir string) (*domain.DaemonState, error) {
	store, err := infra.OpenStateStore(dataDir)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.GetState()
}

// withLiveMonitor opens the store and calls fn when a live monitor is registered.
func withLiveMonitor(dataDir string, fn func(store *infra.EncryptedStateStore, state *domain.DaemonState) error) error {
	store, err := infra.OpenStateStore(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	state, err := store.GetState()
	if err != nil {
		return err
	}
	if state == nil || !infra.NewProcessManager().IsRunning(state.PID) {
		return errNotRunning
	}
	return fn(store, state)
}

func requestPause(cmd *cobra.Command, paused bool) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	return withLiveMonitor(env.dataDir, func(store *infra.EncryptedStateStore, _ *domain.DaemonState) error {
		if err := store.RequestPause(paused); err != nil {
			return err
		}
		if paused {
			fmt.Fprintln(cmd.OutOrStdout(), "Pause requested")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Resume requested")
		}
		return nil
	})
}

func runStop(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	pm := infra.NewProcessManager()
	return withLiveMonitor(env.dataDir, func(store *infra.EncryptedStateStore, state *domain.DaemonState) error {
		if err := store.RequestShutdown(); err != nil {
			return err
		}
		deadline := time.Now().Add(stopTimeout)
		for time.Now().Before(deadline) {
			if !pm.IsRunning(state.PID) {
				fmt.Fprintln(cmd.OutOrStdout(), "autounzip stopped")
				return nil
			}
			time.Sleep(200 * time.Millisecond)
		}
		return fmt.Errorf("monitor (pid %d) did not exit within %s", state.PID, stopTimeout)
	})
}

func runStatus(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	pm := infra.NewProcessManager()
	svcMgr := infra.NewServiceManager(env.mode)

	store, err := infra.OpenStateStore(env.dataDir)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer store.Close()

	state, err := store.GetState()
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Auto Unzip Service Status", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, row := range statusRows(state, state != nil && pm.IsRunning(state.PID), time.Now()) {
		fmt.Fprintln(out, renderStatusLine(row.label, row.kind, row.message, colorize))
	}
	installed := "not installed"
	kind := statusInfo
	if svcMgr.IsInstalled() {
		installed, kind = "installed", statusOK
	}
	fmt.Fprintln(out, renderStatusLine("Service", kind, fmt.Sprintf("%s (%s, %s mode)", installed, svcMgr.Describe(), env.mode.Mode), colorize))
	fmt.Fprintln(out, renderStatusLine("Config", statusInfo, env.cfgPath, colorize))

	records, err := store.RecentExtractions(historyLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Recent extractions", colorize) {
		fmt.Fprintln(out, line)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "  none")
		return nil
	}
	fmt.Fprintln(out, renderHistory(records))
	return nil
}

type statusRow struct {
	label   string
	kind    statusKind
	message string
}

// statusRows builds the monitor section of the status output.
func statusRows(state *domain.DaemonState, alive bool, now time.Time) []statusRow {
	if state == nil {
		return []statusRow{{"Status", statusWarn, "Not running"}}
	}
	if !alive {
		return []statusRow{{"Status", statusError, fmt.Sprintf("Not running (stale entry for pid %d)", state.PID)}}
	}

	rows := make([]statusRow, 0, 8)
	if state.Paused {
		rows = append(rows, statusRow{"Status", statusWarn, "Paused"})
	} else {
		rows = append(rows, statusRow{"Status", statusOK, "Running"})
	}
	rows = append(rows, statusRow{"Monitoring", statusInfo, state.WatchDir})
	if state.ArchiverPath == "" {
		rows = append(rows, statusRow{"PeaZip Path", statusError, "Not Found"})
	} else {
		rows = append(rows, statusRow{"PeaZip Path", statusInfo, state.ArchiverPath})
	}
	rows = append(rows,
		statusRow{"Log File", statusInfo, state.LogPath},
		statusRow{"PID", statusInfo, fmt.Sprintf("%d", state.PID)},
		statusRow{"Version", statusInfo, state.AppVersion},
		statusRow{"Uptime", statusInfo, now.Sub(state.StartedAt).Round(time.Second).String()},
		statusRow{"Last heartbeat", statusInfo, now.Sub(state.LastHeartbeat).Round(time.Second).String() + " ago"},
	)
	return rows
}
