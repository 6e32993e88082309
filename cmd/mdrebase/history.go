// Package main provides the entry point for the mdrebase CLI.
package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/docfold/mdrebase/internal/config"
	"github.com/docfold/mdrebase/internal/journal"
	"github.com/docfold/mdrebase/internal/output"
)

// historyFlags holds the command-line flags for the history command.
type historyFlags struct {
	config string
	last   int
	run    string
}

// newHistoryCmd creates the history command.
func newHistoryCmd() *cobra.Command {
	flags := &historyFlags{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded migration runs",
		Long: `List recorded migration runs from the journal.

Without flags the most recent runs are listed, newest first. Pass
--run <id> (a full id or a unique prefix) to show a single run with
the file actions it recorded.

Examples:
  mdrebase history                 # Last 10 runs
  mdrebase history --last 25       # Last 25 runs
  mdrebase history --run 3f2a      # One run with its file actions
  mdrebase history --json          # Machine-readable output`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.config, "config", "", "Path to config file")
	cmd.Flags().IntVar(&flags.last, "last", 10, "Number of runs to list")
	cmd.Flags().StringVar(&flags.run, "run", "", "Show a single run by id or unique prefix")

	return cmd
}

// runHistory executes the history command.
func runHistory(cmd *cobra.Command, flags *historyFlags) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	if flags.last <= 0 {
		err := output.NewUserError("--last must be a positive integer")
		printer.Error(err)
		return err
	}

	cfg, err := config.Resolve(flags.config)
	if err != nil {
		userErr := output.NewUserError(err.Error())
		printer.Error(userErr)
		return userErr
	}

	db, err := journal.Open(cfg.Journal.ResolvePath())
	if err != nil {
		sysErr := output.NewSystemError(fmt.Sprintf("opening journal: %v", err))
		printer.Error(sysErr)
		return sysErr
	}
	defer db.Close() //nolint:errcheck

	if flags.run != "" {
		return outputHistoryRun(printer, db, flags.run)
	}
	return outputHistoryList(printer, db, flags.last)
}

// outputHistoryRun shows one run with its recorded file actions.
func outputHistoryRun(printer *output.Printer, db *journal.DB, id string) error {
	run, err := db.GetRun(id)
	if err != nil {
		var outErr *output.ExitError
		switch {
		case errors.Is(err, journal.ErrNotFound):
			outErr = output.NewUserError(fmt.Sprintf("no run matches %q", id))
		case errors.Is(err, journal.ErrAmbiguous):
			outErr = output.NewUserError(fmt.Sprintf("run id prefix %q is ambiguous", id))
		default:
			outErr = output.NewSystemError(fmt.Sprintf("loading run: %v", err))
		}
		printer.Error(outErr)
		return outErr
	}

	actions, err := db.RunActions(run.ID)
	if err != nil {
		sysErr := output.NewSystemError(fmt.Sprintf("loading run actions: %v", err))
		printer.Error(sysErr)
		return sysErr
	}

	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{
			"run":     runData(run),
			"actions": actionData(actions),
		})
	}

	printer.KeyValue("Run", run.ID)
	printer.KeyValue("Root", run.Root)
	printer.KeyValue("Started", run.StartedAt.Local().Format(time.RFC3339))
	printer.KeyValue("Finished", run.FinishedAt.Local().Format(time.RFC3339))
	printer.KeyValue("Files", strconv.Itoa(run.Files))
	printer.KeyValue("Changed", strconv.Itoa(run.Changed))
	printer.KeyValue("Deleted", strconv.Itoa(run.Deleted))
	printer.KeyValue("References", strconv.Itoa(run.Refs))
	printer.KeyValue("Dry run", formatBool(run.DryRun))
	if run.Error != "" {
		printer.KeyValue("Error", run.Error)
	}

	if len(actions) > 0 {
		printer.Section("Actions")
		headers := []string{"Action", "Refs", "Path"}
		rows := make([][]string, 0, len(actions))
		for _, a := range actions {
			rows = append(rows, []string{a.Action, strconv.Itoa(a.Refs), a.Path})
		}
		printer.Table(headers, rows)
	}
	return nil
}

// outputHistoryList lists the most recent runs, newest first.
func outputHistoryList(printer *output.Printer, db *journal.DB, last int) error {
	runs, err := db.ListRuns(last)
	if err != nil {
		sysErr := output.NewSystemError(fmt.Sprintf("listing runs: %v", err))
		printer.Error(sysErr)
		return sysErr
	}

	if printer.IsJSON() {
		data := make([]map[string]any, 0, len(runs))
		for _, run := range runs {
			data = append(data, runData(run))
		}
		return printer.WriteJSON(map[string]any{"count": len(runs), "runs": data})
	}

	if len(runs) == 0 {
		printer.Println("No runs recorded")
		return nil
	}

	headers := []string{"Run", "Started", "Root", "Files", "Changed", "Deleted", "Refs", "Flags"}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			run.Root,
			strconv.Itoa(run.Files),
			strconv.Itoa(run.Changed),
			strconv.Itoa(run.Deleted),
			strconv.Itoa(run.Refs),
			runFlagsLabel(run),
		})
	}
	printer.Table(headers, rows)
	return nil
}

// runFlagsLabel marks dry and aborted runs in the list view.
func runFlagsLabel(run journal.Run) string {
	switch {
	case run.Error != "" && run.DryRun:
		return "dry, aborted"
	case run.Error != "":
		return "aborted"
	case run.DryRun:
		return "dry"
	}
	return ""
}

// runData renders a run as a JSON-friendly map.
func runData(run journal.Run) map[string]any {
	data := map[string]any{
		"id":          run.ID,
		"root":        run.Root,
		"started_at":  run.StartedAt.Format(time.RFC3339),
		"finished_at": run.FinishedAt.Format(time.RFC3339),
		"files":       run.Files,
		"changed":     run.Changed,
		"deleted":     run.Deleted,
		"refs":        run.Refs,
		"dry_run":     run.DryRun,
	}
	if run.Error != "" {
		data["error"] = run.Error
	}
	return data
}

// actionData renders action rows as JSON-friendly maps.
func actionData(actions []journal.Action) []map[string]any {
	rows := make([]map[string]any, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, map[string]any{
			"path":   a.Path,
			"action": a.Action,
			"refs":   a.Refs,
		})
	}
	return rows
}

// formatBool returns a human-readable boolean string.
func formatBool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
