package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docfold/mdrebase/internal/batch"
	"github.com/docfold/mdrebase/internal/config"
	"github.com/docfold/mdrebase/internal/journal"
)

// --- Shared types ---

// RefMove is one rebased reference.
type RefMove struct {
	From string `json:"from" jsonschema:"reference before rebasing"`
	To   string `json:"to"   jsonschema:"reference after rebasing"`
}

// FileAction is one file the pipeline would touch (scan) or touched (run).
type FileAction struct {
	Path   string    `json:"path"           jsonschema:"file path as walked from the root"`
	Action string    `json:"action"         jsonschema:"rewrite or delete"`
	Refs   []RefMove `json:"refs,omitempty" jsonschema:"references rebased in this file"`
}

// --- Scan tool ---

// ScanInput is the input for the scan tool.
type ScanInput struct {
	Root string `json:"root,omitempty" jsonschema:"directory to scan (default: configured root)"`
}

// ScanOutput is the output for the scan tool.
type ScanOutput struct {
	Root    string       `json:"root"              jsonschema:"directory that was scanned"`
	Files   int          `json:"files"             jsonschema:"number of files examined"`
	Changed int          `json:"changed"           jsonschema:"files whose references would move"`
	Deleted int          `json:"deleted"           jsonschema:"files that would be pruned"`
	Refs    int          `json:"refs"              jsonschema:"total references that would move"`
	Actions []FileAction `json:"actions,omitempty" jsonschema:"per-file pending changes"`
}

func handleScan(cfg *config.Config) mcp.ToolHandlerFor[ScanInput, ScanOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input ScanInput) (*mcp.CallToolResult, ScanOutput, error) {
		opts := batchOptions(cfg, input.Root, true)

		sum, err := batch.Run(opts)
		if err != nil {
			return nil, ScanOutput{}, fmt.Errorf("scan aborted: %w", err)
		}

		out := ScanOutput{
			Root:    opts.Root,
			Files:   sum.Files,
			Changed: sum.Changed,
			Deleted: sum.Deleted,
			Refs:    sum.Refs,
			Actions: toFileActions(sum.Outcomes),
		}
		return nil, out, nil
	}
}

// --- Run tool ---

// RunInput is the input for the run tool.
type RunInput struct {
	Root   string `json:"root,omitempty"    jsonschema:"directory to migrate (default: configured root)"`
	DryRun bool   `json:"dry_run,omitempty" jsonschema:"report what would change without writing"`
}

// RunOutput is the output for the run tool.
type RunOutput struct {
	RunID   string       `json:"run_id,omitempty"  jsonschema:"journal id of the recorded run"`
	Root    string       `json:"root"              jsonschema:"directory that was migrated"`
	DryRun  bool         `json:"dry_run"           jsonschema:"whether this was a dry run"`
	Files   int          `json:"files"             jsonschema:"number of files processed"`
	Changed int          `json:"changed"           jsonschema:"files whose references moved"`
	Deleted int          `json:"deleted"           jsonschema:"files pruned"`
	Refs    int          `json:"refs"              jsonschema:"total references moved"`
	Actions []FileAction `json:"actions,omitempty" jsonschema:"per-file changes"`
}

func handleRun(cfg *config.Config, db *journal.DB) mcp.ToolHandlerFor[RunInput, RunOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input RunInput) (*mcp.CallToolResult, RunOutput, error) {
		opts := batchOptions(cfg, input.Root, input.DryRun)

		started := time.Now().UTC()
		sum, runErr := batch.Run(opts)
		finished := time.Now().UTC()

		runID := ""
		if db != nil {
			runID = journal.NewRunID()
			rec := journal.Run{
				ID:         runID,
				Root:       opts.Root,
				StartedAt:  started,
				FinishedAt: finished,
				Files:      sum.Files,
				Changed:    sum.Changed,
				Deleted:    sum.Deleted,
				Refs:       sum.Refs,
				DryRun:     input.DryRun,
			}
			if runErr != nil {
				rec.Error = runErr.Error()
			}
			if err := db.RecordRun(rec, journal.ActionsFor(sum.Outcomes)); err != nil {
				if runErr != nil {
					return nil, RunOutput{}, fmt.Errorf("migration aborted (%v); recording run: %w", runErr, err)
				}
				return nil, RunOutput{}, fmt.Errorf("recording run: %w", err)
			}
		}
		if runErr != nil {
			return nil, RunOutput{}, fmt.Errorf("migration aborted: %w", runErr)
		}

		out := RunOutput{
			RunID:   runID,
			Root:    opts.Root,
			DryRun:  input.DryRun,
			Files:   sum.Files,
			Changed: sum.Changed,
			Deleted: sum.Deleted,
			Refs:    sum.Refs,
			Actions: toFileActions(sum.Outcomes),
		}
		return nil, out, nil
	}
}

// --- History tool ---

// HistoryInput is the input for the history tool.
type HistoryInput struct {
	Last int `json:"last,omitempty" jsonschema:"number of runs to return (default 10)"`
}

// HistoryRun is one recorded run.
type HistoryRun struct {
	ID         string `json:"id"              jsonschema:"run id"`
	Root       string `json:"root"            jsonschema:"migrated directory"`
	StartedAt  string `json:"started_at"      jsonschema:"run start time (RFC 3339)"`
	FinishedAt string `json:"finished_at"     jsonschema:"run finish time (RFC 3339)"`
	Files      int    `json:"files"           jsonschema:"files processed"`
	Changed    int    `json:"changed"         jsonschema:"files rewritten"`
	Deleted    int    `json:"deleted"         jsonschema:"files pruned"`
	Refs       int    `json:"refs"            jsonschema:"references moved"`
	DryRun     bool   `json:"dry_run"         jsonschema:"whether the run was a dry run"`
	Error      string `json:"error,omitempty" jsonschema:"error text when the run aborted"`
}

// HistoryOutput is the output for the history tool.
type HistoryOutput struct {
	Count int          `json:"count"          jsonschema:"number of runs returned"`
	Runs  []HistoryRun `json:"runs,omitempty" jsonschema:"recorded runs, newest first"`
}

func handleHistory(db *journal.DB) mcp.ToolHandlerFor[HistoryInput, HistoryOutput] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
		lastN := input.Last
		if lastN <= 0 {
			lastN = 10
		}

		runs, err := db.ListRuns(lastN)
		if err != nil {
			return nil, HistoryOutput{}, fmt.Errorf("listing runs: %w", err)
		}

		return nil, HistoryOutput{Count: len(runs), Runs: toHistoryRuns(runs)}, nil
	}
}
