package mcp

import (
	"time"

	"github.com/docfold/mdrebase/internal/batch"
	"github.com/docfold/mdrebase/internal/config"
	"github.com/docfold/mdrebase/internal/journal"
)

// batchOptions maps the configuration to batch options, with an optional
// root override.
func batchOptions(cfg *config.Config, root string, dryRun bool) batch.Options {
	if root == "" {
		root = cfg.Root
	}
	return batch.Options{
		Root:       root,
		Extensions: cfg.Walk.Extensions,
		PruneNames: cfg.Prune.Names,
		Rules:      cfg.Rules(),
		DryRun:     dryRun,
	}
}

// toFileActions converts touched outcomes to FileAction slice. Files that
// were neither rewritten nor deleted are left out.
func toFileActions(outcomes []batch.Outcome) []FileAction {
	var result []FileAction
	for _, o := range outcomes {
		if !o.Changed && !o.Deleted {
			continue
		}
		action := journal.ActionRewrite
		if o.Deleted {
			action = journal.ActionDelete
		}
		fa := FileAction{Path: o.Path, Action: action}
		for _, ref := range o.Refs {
			fa.Refs = append(fa.Refs, RefMove{From: ref.From, To: ref.To})
		}
		result = append(result, fa)
	}
	return result
}

// toHistoryRuns converts journal runs to HistoryRun slice.
func toHistoryRuns(runs []journal.Run) []HistoryRun {
	result := make([]HistoryRun, 0, len(runs))
	for _, r := range runs {
		result = append(result, HistoryRun{
			ID:         r.ID,
			Root:       r.Root,
			StartedAt:  r.StartedAt.Format(time.RFC3339),
			FinishedAt: r.FinishedAt.Format(time.RFC3339),
			Files:      r.Files,
			Changed:    r.Changed,
			Deleted:    r.Deleted,
			Refs:       r.Refs,
			DryRun:     r.DryRun,
			Error:      r.Error,
		})
	}
	return result
}
