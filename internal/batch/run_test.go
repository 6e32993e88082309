package batch

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/docfold/mdrebase/internal/rewrite"
)

func testOptions(root string) Options {
	return Options{
		Root:       root,
		Extensions: []string{".md"},
		PruneNames: []string{"readme.md", "summary.md"},
		Rules: rewrite.Rules{
			Label:  "**Inherits:**",
			Base:   "docs/docs/src",
			Anchor: "docs/docs/src/src/X/X/",
		},
	}
}

// markOld pushes a file's timestamps into the past so a later write is
// observable without sleeping.
func markOld(t *testing.T, path string) time.Time {
	t.Helper()
	old := time.Unix(946684800, 0) // 2000-01-01
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
	return old
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestRunRewritesLabeledField(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "src/X/X/child.md", "# Child\n\n**Inherits:** (src/Base.md)\n")

	sum, err := Run(testOptions(root))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := "# Child\n\n**Inherits:** (../../Base.md)\n"
	if got := readFile(t, path); got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
	if sum.Files != 1 || sum.Changed != 1 || sum.Deleted != 0 || sum.Refs != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRunWritesUnlabeledFilesUnchanged(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "plain.md", "# Plain\n\nNo field here, just (a/link.md).\n")
	old := markOld(t, path)

	sum, err := Run(testOptions(root))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := readFile(t, path); got != "# Plain\n\nNo field here, just (a/link.md).\n" {
		t.Errorf("content changed: %q", got)
	}
	// The write still happens; only the bytes are identical.
	fi, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !fi.ModTime().After(old) {
		t.Error("file was not written back")
	}
	if sum.Files != 1 || sum.Changed != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRunPrunesWellKnownNames(t *testing.T) {
	root := t.TempDir()
	// Spread across directories so case-insensitive filesystems can hold
	// all the name variants at once.
	rm1 := writeFile(t, root, "a/README.md", "readme\n")
	rm2 := writeFile(t, root, "b/Readme.md", "readme\n")
	rm3 := writeFile(t, root, "c/summary.MD", "summary\n")
	rm4 := writeFile(t, root, "d/SUMMARY.md", "summary\n")
	keep := writeFile(t, root, "e/notes.md", "notes\n")

	sum, err := Run(testOptions(root))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, gone := range []string{rm1, rm2, rm3, rm4} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Errorf("%s still exists", gone)
		}
	}
	if _, err := os.Stat(keep); err != nil {
		t.Errorf("notes.md missing: %v", err)
	}
	if sum.Files != 5 || sum.Deleted != 4 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRunAbortsOnFirstError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink creation requires privileges on windows")
	}

	root := t.TempDir()
	a := writeFile(t, root, "a.md", "**Inherits:** (x.md)\n")
	// A dangling symlink makes the middle file unreadable.
	if err := os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "broken.md")); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	z := writeFile(t, root, "z.md", "untouched\n")
	zOld := markOld(t, z)

	sum, err := Run(testOptions(root))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "broken.md") {
		t.Errorf("err = %v", err)
	}

	// Files before the failure stay mutated; files after stay untouched.
	if got := readFile(t, a); got != "**Inherits:** (../../../x.md)\n" {
		t.Errorf("a.md = %q", got)
	}
	fi, statErr := os.Stat(z)
	if statErr != nil {
		t.Fatalf("stat z.md: %v", statErr)
	}
	if fi.ModTime().After(zOld) {
		t.Error("z.md was processed after the failure")
	}
	if sum.Files != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRunDryRun(t *testing.T) {
	root := t.TempDir()
	doc := writeFile(t, root, "doc.md", "**Inherits:** (a.md)\n")
	readme := writeFile(t, root, "README.md", "readme\n")
	docOld := markOld(t, doc)
	markOld(t, readme)

	opts := testOptions(root)
	opts.DryRun = true
	sum, err := Run(opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := readFile(t, doc); got != "**Inherits:** (a.md)\n" {
		t.Errorf("doc.md was modified: %q", got)
	}
	if _, err := os.Stat(readme); err != nil {
		t.Errorf("README.md was deleted: %v", err)
	}
	fi, err := os.Stat(doc)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.ModTime().After(docOld) {
		t.Error("doc.md was written in dry-run mode")
	}
	if sum.Files != 2 || sum.Changed != 1 || sum.Deleted != 1 || sum.Refs != 1 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestRunReportsOutcomesInOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md", "x\n")
	writeFile(t, root, "a/one.md", "x\n")

	var seen []string
	opts := testOptions(root)
	opts.OnFile = func(out Outcome) { seen = append(seen, out.Path) }

	sum, err := Run(opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(seen) != sum.Files {
		t.Fatalf("callbacks = %d, files = %d", len(seen), sum.Files)
	}
	want := []string{filepath.Join(root, "a", "one.md"), filepath.Join(root, "b.md")}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("seen[%d] = %q, want %q", i, seen[i], want[i])
		}
	}
	if len(sum.Outcomes) != 2 {
		t.Errorf("outcomes = %d", len(sum.Outcomes))
	}
}

func TestRunSecondPassMovesRefsAgain(t *testing.T) {
	// Rebasing is deliberately not idempotent: every pass prepends the
	// base path again. A second run over migrated files shifts refs
	// further instead of leaving them alone.
	root := t.TempDir()
	path := writeFile(t, root, "doc.md", "**Inherits:**\n(../a/b.md)\n")

	if _, err := Run(testOptions(root)); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first := readFile(t, path)
	if first != "**Inherits:**\n(../../../../a/b.md)\n" {
		t.Fatalf("first pass = %q", first)
	}

	if _, err := Run(testOptions(root)); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second := readFile(t, path)
	if second == first {
		t.Error("second run left the file alone; rebasing should have shifted the ref again")
	}
}

func TestRunMissingRoot(t *testing.T) {
	opts := testOptions(filepath.Join(t.TempDir(), "absent"))
	_, err := Run(opts)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "scanning") {
		t.Errorf("err = %v", err)
	}
}

func TestProcessFilePrunes(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "summary.md", "**Inherits:** (a.md)\n")

	rw := rewrite.New(testOptions(root).Rules)
	out, err := ProcessFile(rw, path, []string{"readme.md", "summary.md"}, false)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if !out.Deleted || !out.Changed || len(out.Refs) != 1 {
		t.Errorf("outcome = %+v", out)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("summary.md still exists")
	}
}
