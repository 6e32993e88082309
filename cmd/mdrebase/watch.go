// Package main provides the entry point for the mdrebase CLI.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/docfold/mdrebase/internal/config"
	"github.com/docfold/mdrebase/internal/output"
	"github.com/docfold/mdrebase/internal/watch"
)

// watchFlags holds the command-line flags for the watch command.
type watchFlags struct {
	root     string
	config   string
	debounce time.Duration
	verbose  bool
}

// newWatchCmd creates the watch command.
func newWatchCmd() *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the tree migrated as files change",
		Long: `Watch the root and re-apply the migration to files as they change.

Filesystem events are debounced, then each changed file runs through
the same rebase and prune pipeline as 'mdrebase run'. The watcher skips
events caused by its own writes, so an external edit is processed
exactly once. Per-file failures are logged and watching continues; a
failing watch descriptor ends the process.

Watch activity is logged to stderr and is not recorded in the journal.

Examples:
  mdrebase watch                      # Watch the configured root
  mdrebase watch --root ./docs/src    # Watch a specific tree
  mdrebase watch --debounce 500ms     # Calmer reprocessing cadence
  mdrebase watch --verbose            # Log unchanged files too`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.root, "root", "", "Root directory to watch (overrides config)")
	cmd.Flags().StringVar(&flags.config, "config", "", "Path to config file")
	cmd.Flags().DurationVar(&flags.debounce, "debounce", 0, "Quiet period before reprocessing (overrides config)")
	cmd.Flags().BoolVar(&flags.verbose, "verbose", false, "Enable debug logging")

	return cmd
}

// runWatch executes the watch command. It blocks until interrupted.
func runWatch(cmd *cobra.Command, flags *watchFlags) error {
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
	debounce := time.Duration(cfg.Watch.Debounce)
	if flags.debounce > 0 {
		debounce = flags.debounce
	}

	logger, err := newWatchLogger(flags.verbose)
	if err != nil {
		sysErr := output.NewSystemError(fmt.Sprintf("building logger: %v", err))
		printer.Error(sysErr)
		return sysErr
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watching", zap.String("root", root), zap.Duration("debounce", debounce))
	err = watch.Run(ctx, watch.Options{
		Root:       root,
		Extensions: cfg.Walk.Extensions,
		PruneNames: cfg.Prune.Names,
		Rules:      cfg.Rules(),
		Debounce:   debounce,
		Logger:     logger,
	})
	if err != nil {
		sysErr := output.NewSystemError(fmt.Sprintf("watch failed: %v", err))
		printer.Error(sysErr)
		return sysErr
	}
	return nil
}

// newWatchLogger builds the structured logger for watch mode.
func newWatchLogger(verbose bool) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	if verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return logCfg.Build()
}
