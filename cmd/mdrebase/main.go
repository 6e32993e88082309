// Package main provides the entry point for the mdrebase CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/docfold/mdrebase/internal/output"
)

// Build info set via ldflags at build time.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	flag := cmd.Flags().Lookup("json")
	if flag == nil {
		// Walk up to root to find the persistent flag
		flag = cmd.Root().PersistentFlags().Lookup("json")
	}
	return flag != nil && flag.Value.String() == "true"
}

// useColor resolves whether human output gets ANSI styling, honoring the
// --no-color persistent flag, the NO_COLOR convention, and TTY detection.
func useColor(cmd *cobra.Command) bool {
	mode := "auto"
	flag := cmd.Flags().Lookup("no-color")
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup("no-color")
	}
	if flag != nil && flag.Value.String() == "true" {
		mode = "never"
	}
	return output.ResolveColorMode(mode, output.IsTTY(cmd.OutOrStdout()))
}

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// newRootCmd creates the root command for the mdrebase CLI.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdrebase",
		Short: "Rebase Markdown path references when a docs tree moves",
		Long: `mdrebase - Rebase labeled path references across a moved Markdown tree.

mdrebase migrates a documentation tree in place by:
  - Walking every Markdown file under the root in sorted order
  - Rebasing the parenthesized references in a labeled metadata field
    so they resolve from the tree's new location
  - Deleting scaffolding files (readme.md, summary.md) after processing
  - Recording each migration in a local SQLite journal

A plain 'mdrebase run' is destructive: every file is rewritten in place
and scaffolding files are removed. Use 'mdrebase scan' to preview what
a run would do without touching the tree.

All commands support --json for structured output.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// If --json flag is set but no subcommand, output JSON error
			if isJSONMode(cmd) {
				printer := output.NewPrinter(cmd.OutOrStdout(), true, false)
				err := output.NewUserError("no command specified. Run 'mdrebase --help' for usage")
				printer.Error(err)
				return err
			}
			// Otherwise show help
			return cmd.Help()
		},
	}

	// Persistent flags (available to all subcommands)
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable ANSI styling in output")

	// Configure lipgloss for TTY detection
	lipgloss.SetHasDarkBackground(true)

	// Define command groups and add commands
	addCommandGroups(cmd)
	addCommands(cmd)

	return cmd
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "query", Title: "Query Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "agent", Title: "Agent Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "admin", Title: "Admin Commands:"})
}

// addCommands adds all subcommands with their group assignments.
func addCommands(cmd *cobra.Command) {
	// Core commands: run, scan, watch
	addGroupedCommand(cmd, newRunCmd(), "core")
	addGroupedCommand(cmd, newScanCmd(), "core")
	addGroupedCommand(cmd, newWatchCmd(), "core")

	// Query commands: history
	addGroupedCommand(cmd, newHistoryCmd(), "query")

	// Agent commands: serve
	addGroupedCommand(cmd, newServeCmd(), "agent")

	// Admin commands: init, doctor
	addGroupedCommand(cmd, newInitCmd(), "admin")
	addGroupedCommand(cmd, newDoctorCmd(), "admin")
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent *cobra.Command, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}
