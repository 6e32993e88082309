// Package main provides the entry point for the mdrebase CLI.
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/docfold/mdrebase/internal/batch"
	"github.com/docfold/mdrebase/internal/config"
	"github.com/docfold/mdrebase/internal/journal"
	"github.com/docfold/mdrebase/internal/output"
)

// runFlags holds the command-line flags for the run command.
type runFlags struct {
	root      string
	config    string
	dryRun    bool
	noJournal bool
}

// newRunCmd creates the run command.
func newRunCmd() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rebase references and prune scaffolding across the tree",
		Long: `Run the migration over every Markdown file under the root.

Files are processed one at a time in sorted path order. For each file
the parenthesized references in the labeled metadata field are rebased,
the file is written back in place, and files whose base name is on the
prune list (readme.md and summary.md by default) are then deleted. The
first failure aborts the run; files already written stay written.

Runs are recorded in the journal, including dry runs and aborted runs.
Use 'mdrebase history' to inspect past runs.

Examples:
  mdrebase run                        # Migrate the configured root
  mdrebase run --root ./docs/src      # Migrate a specific tree
  mdrebase run --dry-run              # Rehearse without writing
  mdrebase run --no-journal           # Skip the journal record
  mdrebase run --json                 # Machine-readable summary`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.root, "root", "", "Root directory to migrate (overrides config)")
	cmd.Flags().StringVar(&flags.config, "config", "", "Path to config file")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Compute changes without writing or deleting")
	cmd.Flags().BoolVar(&flags.noJournal, "no-journal", false, "Do not record this run in the journal")

	return cmd
}

// runRun executes the run command.
func runRun(cmd *cobra.Command, flags *runFlags) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	cfg, err := config.Resolve(flags.config)
	if err != nil {
		userErr := output.NewUserError(err.Error())
		printer.Error(userErr)
		return userErr
	}
	root := cfg.Root
	if flags.root != "" {
		root = flags.root
	}

	// The journal opens before any file is touched so a broken journal
	// cannot strand a half-recorded migration.
	var db *journal.DB
	if !flags.noJournal {
		db, err = journal.Open(cfg.Journal.ResolvePath())
		if err != nil {
			sysErr := output.NewSystemError(fmt.Sprintf("opening journal: %v", err))
			printer.Error(sysErr)
			return sysErr
		}
		defer db.Close() //nolint:errcheck
	}

	opts := batch.Options{
		Root:       root,
		Extensions: cfg.Walk.Extensions,
		PruneNames: cfg.Prune.Names,
		Rules:      cfg.Rules(),
		DryRun:     flags.dryRun,
	}
	if !printer.IsJSON() {
		opts.OnFile = func(out batch.Outcome) {
			printOutcome(printer, out, flags.dryRun)
		}
	}

	started := time.Now().UTC()
	sum, runErr := batch.Run(opts)
	finished := time.Now().UTC()

	runID := ""
	if db != nil {
		runID = journal.NewRunID()
		rec := journal.Run{
			ID:         runID,
			Root:       root,
			StartedAt:  started,
			FinishedAt: finished,
			Files:      sum.Files,
			Changed:    sum.Changed,
			Deleted:    sum.Deleted,
			Refs:       sum.Refs,
			DryRun:     flags.dryRun,
		}
		if runErr != nil {
			rec.Error = runErr.Error()
		}
		if err := db.RecordRun(rec, journal.ActionsFor(sum.Outcomes)); err != nil {
			msg := fmt.Sprintf("recording run: %v", err)
			if runErr != nil {
				msg = fmt.Sprintf("migration aborted (%v); recording run: %v", runErr, err)
			}
			sysErr := output.NewSystemError(msg)
			printer.Error(sysErr)
			return sysErr
		}
	}

	if runErr != nil {
		sysErr := output.NewSystemError(fmt.Sprintf("migration aborted: %v", runErr))
		printer.Error(sysErr)
		return sysErr
	}

	return outputRunSummary(printer, root, runID, flags.dryRun, sum)
}

// outputRunSummary prints the completion summary for a finished run.
func outputRunSummary(printer *output.Printer, root, runID string, dryRun bool, sum batch.Summary) error {
	if printer.IsJSON() {
		data := map[string]any{
			"root":    root,
			"dry_run": dryRun,
			"files":   sum.Files,
			"changed": sum.Changed,
			"deleted": sum.Deleted,
			"refs":    sum.Refs,
		}
		if runID != "" {
			data["run_id"] = runID
		}
		return printer.WriteJSON(data)
	}

	printer.Println()
	if dryRun {
		printer.Print("Dry run over %s: %d files, %d would change, %d would be deleted, %d references\n",
			root, sum.Files, sum.Changed, sum.Deleted, sum.Refs)
	} else {
		printer.Print("Processed %s: %d files, %d rewritten, %d deleted, %d references\n",
			root, sum.Files, sum.Changed, sum.Deleted, sum.Refs)
	}
	if runID != "" {
		printer.Print("Recorded as run %s\n", shortID(runID))
	}
	return nil
}

// printOutcome prints the per-file progress lines for human mode. Files
// that were neither rewritten nor deleted stay quiet.
func printOutcome(printer *output.Printer, out batch.Outcome, dryRun bool) {
	label := outcomeLabel(printer, out, dryRun)
	if label == "" {
		return
	}
	printer.Print("%s %s\n", label, out.Path)
	for _, ref := range out.Refs {
		printer.Print("   %s %s %s\n", ref.From, printer.Styles().Dim.Render("->"), ref.To)
	}
}

// outcomeLabel renders the action label for a file. Delete wins over
// rewrite: a pruned file's rebased references still print underneath.
func outcomeLabel(printer *output.Printer, out batch.Outcome, dryRun bool) string {
	styles := printer.Styles()
	switch {
	case out.Deleted && dryRun:
		return styles.Warning.Render("would delete")
	case out.Deleted:
		return styles.Warning.Render("deleted")
	case out.Changed && dryRun:
		return styles.Success.Render("would rewrite")
	case out.Changed:
		return styles.Success.Render("rewrote")
	}
	return ""
}

// shortID returns the first eight characters of a run id, enough to pass
// back to 'history --run'.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
