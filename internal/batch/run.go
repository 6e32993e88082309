package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docfold/mdrebase/internal/rewrite"
)

// Options configure one batch run.
type Options struct {
	// Root is the directory walked for matching files.
	Root string
	// Extensions select files by suffix, case-insensitively.
	Extensions []string
	// PruneNames are base names deleted after the write, compared
	// case-insensitively.
	PruneNames []string
	// Rules drive the reference rebasing.
	Rules rewrite.Rules
	// DryRun computes outcomes without writing or deleting anything.
	DryRun bool
	// OnFile, when set, is called with each file's outcome as soon as the
	// file has been processed.
	OnFile func(Outcome)
}

// Outcome records the processing of a single file. In dry-run mode the
// flags describe what a real run would have done.
type Outcome struct {
	Path    string
	Refs    []rewrite.Ref
	Changed bool
	Deleted bool
}

// Summary aggregates a run. When Run returns an error the summary covers
// the files completed before the failure.
type Summary struct {
	Files    int
	Changed  int
	Deleted  int
	Refs     int
	Outcomes []Outcome
}

func (s *Summary) add(out Outcome) {
	s.Files++
	if out.Changed {
		s.Changed++
	}
	if out.Deleted {
		s.Deleted++
	}
	s.Refs += len(out.Refs)
	s.Outcomes = append(s.Outcomes, out)
}

// Run executes one batch pass: discover, then read, rewrite, write back,
// and prune every file in order. Processing is strictly sequential and the
// first failure aborts the run; files already written stay written.
func Run(opts Options) (Summary, error) {
	files, err := Discover(opts.Root, opts.Extensions)
	if err != nil {
		return Summary{}, fmt.Errorf("scanning %s: %w", opts.Root, err)
	}

	rw := rewrite.New(opts.Rules)
	var sum Summary
	for _, path := range files {
		out, err := ProcessFile(rw, path, opts.PruneNames, opts.DryRun)
		if err != nil {
			return sum, err
		}
		sum.add(out)
		if opts.OnFile != nil {
			opts.OnFile(out)
		}
	}
	return sum, nil
}

// ProcessFile runs the pipeline for a single file: read, rewrite, write the
// result back even when nothing changed, then delete the file if its base
// name is on the prune list. The delete always follows the write, so a
// pruned file was current on disk first.
func ProcessFile(rw *rewrite.Rewriter, path string, pruneNames []string, dryRun bool) (Outcome, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Outcome{}, fmt.Errorf("reading %s: %w", path, err)
	}

	res := rw.Apply(string(data))
	out := Outcome{Path: path, Refs: res.Refs, Changed: res.Changed}
	prune := matchesName(filepath.Base(path), pruneNames)

	if dryRun {
		out.Deleted = prune
		return out, nil
	}

	if err := os.WriteFile(path, []byte(res.Text), info.Mode().Perm()); err != nil {
		return Outcome{}, fmt.Errorf("writing %s: %w", path, err)
	}
	if prune {
		if err := os.Remove(path); err != nil {
			return Outcome{}, fmt.Errorf("deleting %s: %w", path, err)
		}
		out.Deleted = true
	}
	return out, nil
}

// matchesName reports whether base equals one of names, ignoring case.
func matchesName(base string, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(base, n) {
			return true
		}
	}
	return false
}
