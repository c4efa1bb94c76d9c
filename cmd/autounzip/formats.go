package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eliteGoblin/focusd/auto_unzip/internal/config"
	"github.com/eliteGoblin/focusd/auto_unzip/internal/policy"
)

var formatsCmd = &cobra.Command{
	Use:   "formats [file...]",
	Short: "List recognised archive formats",
	Long: `Lists the archive suffixes autounzip reacts to. Formats marked as
silent are extracted without asking; the rest need a confirmation.
Any name ending in a three-digit volume number (.004, .123...) also counts.

With file names, shows how each one would be handled instead.`,
	Run: runFormats,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a sample configuration file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var forceConfig bool

func init() {
	configInitCmd.Flags().BoolVar(&forceConfig, "force", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}

func runFormats(cmd *cobra.Command, args []string) {
	r := policy.NewRegistry()
	if len(args) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), classifyTable(r, args))
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatsTable(r))
}

func classifyTable(r *policy.Registry, names []string) string {
	c := policy.NewClassifier(r)
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		family, handling := "-", "ignored"
		if f, err := r.FamilyOf(name); err == nil {
			family = f.Name()
			handling = "ask first"
			if c.IsConventional(name) {
				handling = "extract silently"
			}
		}
		rows = append(rows, []string{name, family, handling})
	}
	return renderTable([]string{"File", "Family", "Handling"}, rows, nil)
}

func formatsTable(r *policy.Registry) string {
	var rows [][]string
	for _, f := range r.GetAll() {
		rows = append(rows, []string{
			f.Name(),
			strings.Join(f.Extensions(), " "),
			strings.Join(f.Conventional(), " "),
		})
	}
	return renderTable([]string{"Family", "Extensions", "Silent"}, rows, nil)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultConfigPath(); err != nil {
			return err
		}
	}
	path, err := config.ExpandPath(path)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !forceConfig {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := config.CreateSample(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
