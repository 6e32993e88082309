// Package mcp provides a Model Context Protocol server for mdrebase.
// It exposes the migration pipeline as MCP tools that any MCP-capable agent can use.
package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docfold/mdrebase/internal/config"
	"github.com/docfold/mdrebase/internal/journal"
)

// NewServer creates an MCP server with all mdrebase tools registered.
// The journal db backs the run and history tools.
func NewServer(version string, cfg *config.Config, db *journal.DB) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "mdrebase",
		Version: version,
	}, nil)
	registerTools(server, cfg, db)
	return server
}

// boolPtr returns a pointer to a bool value.
func boolPtr(b bool) *bool {
	return &b
}

// readOnlyAnnotations returns annotations for tools that do not touch the tree.
func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// destructiveAnnotations returns annotations for tools that modify the tree.
// Not idempotent: a second run over a migrated tree moves references again.
func destructiveAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(true),
		OpenWorldHint:   boolPtr(false),
	}
}

// registerTools adds all mdrebase tools to the server.
func registerTools(server *mcp.Server, cfg *config.Config, db *journal.DB) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "scan",
		Description: "Preview the migration without writing anything. Lists files whose references would be rebased and files that would be pruned.",
		Annotations: readOnlyAnnotations(),
	}, handleScan(cfg))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run",
		Description: "Apply the migration: rewrite labeled references in every file under the root and prune well-known scaffolding files. Destructive; every file is written back and re-running moves references again.",
		Annotations: destructiveAnnotations(),
	}, handleRun(cfg, db))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "history",
		Description: "List recorded migration runs from the journal, newest first, with per-run counters.",
		Annotations: readOnlyAnnotations(),
	}, handleHistory(db))
}
