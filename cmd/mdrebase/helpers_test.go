package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docfold/mdrebase/internal/config"
)

// isolateEnv points config resolution and the journal at test-owned
// directories so tests never touch the real user config.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvConfig, "")
	t.Setenv("MDREBASE_CONFIG_HOME", t.TempDir())
}

// execCommand runs the CLI with args and returns everything written to
// stdout and stderr.
func execCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// parseJSON decodes the single JSON document a command printed.
func parseJSON(t *testing.T, out string) map[string]any {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, out)
	}
	return result
}

// writeDoc writes a file under root, creating parent directories.
func writeDoc(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// seedTree creates a root with one rewritable doc and one prunable readme.
// Returns the root and the doc path.
func seedTree(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	doc := writeDoc(t, root, "child.md", "# Child\n\n**Inherits:** (src/Base.md)\n")
	writeDoc(t, root, "README.md", "# Readme\n")
	return root, doc
}

// rewrittenChild is child.md's content after one migration pass under the
// default rules.
const rewrittenChild = "# Child\n\n**Inherits:** (../../Base.md)\n"

// defaultJournalPath returns where the journal lands under the isolated env.
func defaultJournalPath() string {
	return config.NewDefault().Journal.ResolvePath()
}

// runInDir changes to the given directory, runs testFunc, then restores
// the original directory.
func runInDir(t *testing.T, dir string, testFunc func()) {
	t.Helper()
	oldDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working dir: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("failed to chdir to %s: %v", dir, err)
	}
	defer func() {
		if err := os.Chdir(oldDir); err != nil {
			t.Errorf("failed to restore dir: %v", err)
		}
	}()
	testFunc()
}

// eventually polls cond until it returns true or the timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(tick)
	}
	t.Fatal(msg)
}
