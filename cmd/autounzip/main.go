// Package main is the CLI entry point for autounzip.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

// errDeclined ends the process with exit code 1 without an error message.
var errDeclined = errors.New("declined")

func main() {
	rootCmd.SetArgs(normalizeLegacyArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errDeclined) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "autounzip",
	Short: "Extract finished downloads automatically",
	Long: `autounzip watches the Downloads folder and extracts archives with PeaZip
as soon as the browser has finished writing them. Password protected
archives are retried with credentials you type in, up to three times
per file.

Run without a command to monitor in the foreground.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runMonitor,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath string
	jsonOutput bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: user config dir)")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(uninstallCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(formatsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// normalizeLegacyArgs maps the single-dash switches of earlier releases
// (-install, -uninstall, -help, /?) onto subcommands. The first switch wins.
func normalizeLegacyArgs(args []string) []string {
	for _, arg := range args {
		switch strings.ToLower(arg) {
		case "-install", "/install":
			return []string{"install"}
		case "-uninstall", "/uninstall":
			return []string{"uninstall"}
		case "-help", "/help", "/?":
			return []string{"help"}
		}
	}
	return args
}

func runVersion(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	if jsonOutput {
		fmt.Fprintf(out, `{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Fprintf(out, "autounzip %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
