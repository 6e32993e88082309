// Package main provides the entry point for the mdrebase CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docfold/mdrebase/internal/batch"
	"github.com/docfold/mdrebase/internal/config"
	"github.com/docfold/mdrebase/internal/journal"
	"github.com/docfold/mdrebase/internal/output"
)

// checkStatus represents the result of a health check.
type checkStatus string

const (
	checkPass checkStatus = "pass"
	checkWarn checkStatus = "warn"
	checkFail checkStatus = "fail"
)

// checkResult holds the result of a single health check.
type checkResult struct {
	Name    string      `json:"name"`
	Status  checkStatus `json:"status"`
	Message string      `json:"message"`
	Hint    string      `json:"hint,omitempty"`
}

// doctorResult holds all check results.
type doctorResult struct {
	Version string        `json:"version"`
	Checks  []checkResult `json:"checks"`
	Summary doctorSummary `json:"summary"`
}

// doctorSummary holds the counts of check results.
type doctorSummary struct {
	Passed   int `json:"passed"`
	Warnings int `json:"warnings"`
	Failed   int `json:"failed"`
}

// doctorFlags holds the command-line flags for the doctor command.
type doctorFlags struct {
	config string
}

// newDoctorCmd creates the doctor command.
func newDoctorCmd() *cobra.Command {
	flags := &doctorFlags{}

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that a migration could run here",
		Long: `Check the environment a migration would run in.

Verifies that the configuration parses, the root exists and is
writable, matching Markdown files are present, and the journal
database opens.

Each check reports:
  Pass    - Check passed
  Warning - Non-critical issue found
  Fail    - Issue that would block a run

The exit code is non-zero when any check fails.

Examples:
  mdrebase doctor              # Run all health checks
  mdrebase doctor --json       # Output results as JSON`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.config, "config", "", "Path to config file")

	return cmd
}

// runDoctor executes the doctor command.
func runDoctor(cmd *cobra.Command, flags *doctorFlags) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	result := gatherDoctorChecks(flags)

	if printer.IsJSON() {
		if err := printer.WriteJSON(result); err != nil {
			return err
		}
	} else {
		outputDoctorHuman(printer, result)
	}

	// Failures surface in the exit code; the report above carries the detail.
	if result.Summary.Failed > 0 {
		return output.NewSystemError(fmt.Sprintf("%d of %d checks failed", result.Summary.Failed, len(result.Checks)))
	}
	return nil
}

// gatherDoctorChecks runs all health checks and returns results.
func gatherDoctorChecks(flags *doctorFlags) *doctorResult {
	result := &doctorResult{Version: version}

	cfg, configCheck := checkConfig(flags.config)
	result.Checks = append(result.Checks, configCheck)

	rootCheck, rootOK := checkRoot(cfg.Root)
	result.Checks = append(result.Checks, rootCheck)
	result.Checks = append(result.Checks, checkRootWritable(cfg.Root, rootOK))
	result.Checks = append(result.Checks, checkMarkdownFiles(cfg, rootOK))
	result.Checks = append(result.Checks, checkJournal(cfg))

	for _, check := range result.Checks {
		switch check.Status {
		case checkPass:
			result.Summary.Passed++
		case checkWarn:
			result.Summary.Warnings++
		case checkFail:
			result.Summary.Failed++
		}
	}
	return result
}

// configSource names where the effective config comes from, mirroring the
// resolution order of config.Resolve.
func configSource(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(config.EnvConfig); env != "" {
		return env
	}
	if _, err := os.Stat(config.DefaultFile); err == nil {
		return config.DefaultFile
	}
	return "built-in defaults"
}

// checkConfig verifies the effective configuration parses and validates.
// On failure the built-in defaults are returned so later checks can run.
func checkConfig(explicit string) (*config.Config, checkResult) {
	source := configSource(explicit)
	cfg, err := config.Resolve(explicit)
	if err != nil {
		return config.NewDefault(), checkResult{
			Name:    "config",
			Status:  checkFail,
			Message: err.Error(),
			Hint:    "fix " + source + " or remove it to fall back to defaults",
		}
	}
	return cfg, checkResult{Name: "config", Status: checkPass, Message: source}
}

// checkRoot verifies the migration root exists and is a directory.
func checkRoot(root string) (checkResult, bool) {
	info, err := os.Stat(root)
	switch {
	case err != nil:
		return checkResult{
			Name:    "root",
			Status:  checkFail,
			Message: root + " does not exist",
			Hint:    "set root in " + config.DefaultFile + " or pass --root",
		}, false
	case !info.IsDir():
		return checkResult{
			Name:    "root",
			Status:  checkFail,
			Message: root + " is not a directory",
		}, false
	}
	return checkResult{Name: "root", Status: checkPass, Message: root}, true
}

// checkRootWritable verifies files under the root can be written. A run
// rewrites every file in place, so read-only trees fail before any work.
func checkRootWritable(root string, rootOK bool) checkResult {
	if !rootOK {
		return checkResult{Name: "root writable", Status: checkWarn, Message: "skipped: root unavailable"}
	}
	probe, err := os.CreateTemp(root, ".mdrebase-doctor-*")
	if err != nil {
		return checkResult{
			Name:    "root writable",
			Status:  checkFail,
			Message: err.Error(),
			Hint:    "runs rewrite files in place and need write access",
		}
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return checkResult{Name: "root writable", Status: checkPass, Message: "writable"}
}

// checkMarkdownFiles counts the files a run would process.
func checkMarkdownFiles(cfg *config.Config, rootOK bool) checkResult {
	if !rootOK {
		return checkResult{Name: "markdown files", Status: checkWarn, Message: "skipped: root unavailable"}
	}
	files, err := batch.Discover(cfg.Root, cfg.Walk.Extensions)
	if err != nil {
		return checkResult{Name: "markdown files", Status: checkFail, Message: err.Error()}
	}
	if len(files) == 0 {
		return checkResult{
			Name:    "markdown files",
			Status:  checkWarn,
			Message: "no matching files under " + cfg.Root,
			Hint:    "check walk.extensions in " + config.DefaultFile,
		}
	}
	return checkResult{Name: "markdown files", Status: checkPass, Message: fmt.Sprintf("%d files", len(files))}
}

// checkJournal verifies the journal database opens.
func checkJournal(cfg *config.Config) checkResult {
	path := cfg.Journal.ResolvePath()
	db, err := journal.Open(path)
	if err != nil {
		return checkResult{
			Name:    "journal",
			Status:  checkFail,
			Message: err.Error(),
			Hint:    "check journal.path in " + config.DefaultFile,
		}
	}
	_ = db.Close()
	return checkResult{Name: "journal", Status: checkPass, Message: path}
}

// outputDoctorHuman outputs the doctor result in human-readable format.
func outputDoctorHuman(printer *output.Printer, result *doctorResult) {
	printer.Println()
	printer.Print("mdrebase doctor v%s\n", result.Version)
	printer.Println()

	for _, check := range result.Checks {
		printer.Print("  %s  %s %s\n", statusIcon(check.Status), check.Name, check.Message)
		if check.Hint != "" {
			printer.Print("     %s %s\n", hintPrefix(), check.Hint)
		}
	}

	printer.Println()
	printer.Print("%s %d passed  %s %d warnings  %s %d failed\n",
		statusIcon(checkPass), result.Summary.Passed,
		statusIcon(checkWarn), result.Summary.Warnings,
		statusIcon(checkFail), result.Summary.Failed,
	)
}

// statusIcon returns the icon for a check status.
func statusIcon(status checkStatus) string {
	switch status {
	case checkPass:
		return "ok"
	case checkWarn:
		return "!!"
	case checkFail:
		return "XX"
	default:
		return "??"
	}
}

// hintPrefix returns the prefix for hint lines.
func hintPrefix() string {
	return "->"
}
