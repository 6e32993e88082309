// Package main provides the entry point for the mdrebase CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/docfold/mdrebase/internal/config"
	"github.com/docfold/mdrebase/internal/output"
)

// configTemplate is the scaffold written by init. Values match the
// built-in defaults.
const configTemplate = `# mdrebase configuration.
# Values shown are the built-in defaults.

# Directory the migration walks.
root: ../docs/docs/contracts/src

rewrite:
  # Field whose parenthesized references get rebased. Matched literally,
  # first occurrence per file.
  label: "**Inherits:**"
  # Old tree location, joined in front of each reference.
  base: docs/docs/src
  # New location the joined path is made relative to.
  anchor: docs/docs/src/src/X/X/

walk:
  extensions: [".md"]

prune:
  # Deleted after processing, matched against base names case-insensitively.
  names: [readme.md, summary.md]

journal:
  # Empty means <config dir>/mdrebase/journal.db.
  path: ""

watch:
  debounce: 200ms
`

// initFlags holds the command-line flags for the init command.
type initFlags struct {
	force bool
}

// newInitCmd creates the init command.
func newInitCmd() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		Long: `Write a starter .mdrebase.yaml in the current directory.

The scaffold lists every setting with its default value. Edit root,
label, base, and anchor to describe your tree move, then preview with
'mdrebase scan'.

Examples:
  mdrebase init             # Create .mdrebase.yaml
  mdrebase init --force     # Overwrite an existing file`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.force, "force", false, "Overwrite an existing config file")

	return cmd
}

// runInit executes the init command.
func runInit(cmd *cobra.Command, flags *initFlags) error {
	printer := output.NewPrinter(cmd.OutOrStdout(), isJSONMode(cmd), useColor(cmd))

	if _, err := os.Stat(config.DefaultFile); err == nil && !flags.force {
		userErr := output.NewUserError(config.DefaultFile + " already exists. Use --force to overwrite")
		printer.Error(userErr)
		return userErr
	}

	if err := os.WriteFile(config.DefaultFile, []byte(configTemplate), 0o644); err != nil {
		sysErr := output.NewSystemError(fmt.Sprintf("writing %s: %v", config.DefaultFile, err))
		printer.Error(sysErr)
		return sysErr
	}

	return printer.Success(map[string]any{
		"message": "Created " + config.DefaultFile,
		"path":    config.DefaultFile,
	})
}
