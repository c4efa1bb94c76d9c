package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/daemon"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/infra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install autounzip as a service that starts automatically",
	Long: `Registers autounzip with the OS service manager: a LaunchAgent on macOS
(LaunchDaemon under sudo), a systemd user unit on Linux (system unit as root)
and a Windows service started automatically at boot.`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the autounzip service",
	Args:  cobra.NoArgs,
	RunE:  runUninstall,
}

var forceInstall bool

func init() {
	installCmd.Flags().BoolVar(&forceInstall, "force", false, "Rewrite the service definition if it already exists")
}

func runInstall(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	mode := infra.DetectExecMode()
	mgr := infra.NewServiceManager(mode)

	fmt.Fprintf(out, "Execution mode: %s\n", mode.Mode)

	if mgr.IsInstalled() && !forceInstall {
		fmt.Fprintln(out, "Service is already installed!")
		return errDeclined
	}

	execPath, err := daemon.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	if infra.NewArchiverLocator("").Locate() == "" {
		fmt.Fprintln(out, "Warning: PeaZip was not found. Install it from https://peazip.github.io/")
	}

	if err := mgr.Install(execPath); err != nil {
		return fmt.Errorf("failed to install service: %w", err)
	}
	fmt.Fprintln(out, "Service installed successfully!")
	fmt.Fprintf(out, "Definition: %s\n", mgr.Describe())
	fmt.Fprintln(out, "The service will start automatically on system boot.")
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	mgr := infra.NewServiceManager(infra.DetectExecMode())

	if !mgr.IsInstalled() {
		fmt.Fprintln(out, "Service not found or access denied!")
		return errDeclined
	}
	if err := mgr.Uninstall(); err != nil {
		return errors.Join(errors.New("failed to uninstall service"), err)
	}
	fmt.Fprintln(out, "Service uninstalled successfully!")
	return nil
}
