// Package main provides the entry point for the mdrebase CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docfold/mdrebase/internal/batch"
	"github.com/docfold/mdrebase/internal/config"
	"github.com/docfold/mdrebase/internal/journal"
	"github.com/docfold/mdrebase/internal/output"
)

// scanFlags holds the command-line flags for the scan command.
type scanFlags struct {
	root   string
	config string
}

// newScanCmd creates the scan command.
func newScanCmd() *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Preview the migration without touching the tree",
		Long: `Scan the root and report what a run would do.

The same pipeline as 'mdrebase run' executes against every Markdown
file, but nothing is written and nothing is deleted. Each pending
rewrite and prune is listed, followed by a summary.

Scans are not recorded in the journal, and the exit code is zero even
when changes are pending.

Examples:
  mdrebase scan                       # Preview the configured root
  mdrebase scan --root ./docs/src     # Preview a specific tree
  mdrebase scan --json                # Machine-readable preview`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.root, "root", "", "Root directory to scan (overrides config)")
	cmd.Flags().StringVar(&flags.config, "config", "", "Path to config file")

	return cmd
}

// runScan executes the scan command.
func runScan(cmd *cobra.Command, flags *scanFlags) error {
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

	opts := batch.Options{
		Root:       root,
		Extensions: cfg.Walk.Extensions,
		PruneNames: cfg.Prune.Names,
		Rules:      cfg.Rules(),
		DryRun:     true,
	}
	if !printer.IsJSON() {
		opts.OnFile = func(out batch.Outcome) {
			printOutcome(printer, out, true)
		}
	}

	sum, err := batch.Run(opts)
	if err != nil {
		sysErr := output.NewSystemError(fmt.Sprintf("scan aborted: %v", err))
		printer.Error(sysErr)
		return sysErr
	}

	if printer.IsJSON() {
		return printer.WriteJSON(map[string]any{
			"root":    root,
			"files":   sum.Files,
			"changed": sum.Changed,
			"deleted": sum.Deleted,
			"refs":    sum.Refs,
			"actions": actionData(journal.ActionsFor(sum.Outcomes)),
		})
	}

	printer.Println()
	printer.Print("Scan of %s: %d files, %d would change, %d would be deleted, %d references\n",
		root, sum.Files, sum.Changed, sum.Deleted, sum.Refs)
	if sum.Changed > 0 || sum.Deleted > 0 {
		printer.Print("Run 'mdrebase run' to apply\n")
	}
	return nil
}
