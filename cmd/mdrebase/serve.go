// Package main provides the entry point for the mdrebase CLI.
package main

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/docfold/mdrebase/internal/config"
	"github.com/docfold/mdrebase/internal/journal"
	mdrebasemcp "github.com/docfold/mdrebase/internal/mcp"
	"github.com/docfold/mdrebase/internal/output"
)

// newServeCmd creates the serve command for running as an MCP server.
func newServeCmd() *cobra.Command {
	var configFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run as MCP server (stdio transport)",
		Long: `Run mdrebase as a Model Context Protocol (MCP) server over stdio.

This exposes the migration pipeline as MCP tools that any MCP-capable
agent environment can use (Claude Code, Cursor, Windsurf, Gemini CLI,
etc).

Configure in your agent's MCP settings:
  {
    "mcpServers": {
      "mdrebase": {
        "command": "mdrebase",
        "args": ["serve"]
      }
    }
  }

Available tools: scan, run, history`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Resolve(configFlag)
			if err != nil {
				return output.NewUserError(err.Error())
			}
			db, err := journal.Open(cfg.Journal.ResolvePath())
			if err != nil {
				return output.NewSystemError(fmt.Sprintf("opening journal: %v", err))
			}
			defer db.Close() //nolint:errcheck

			server := mdrebasemcp.NewServer(buildVersion(), cfg, db)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}

	cmd.Flags().StringVar(&configFlag, "config", "", "Path to config file")

	return cmd
}
