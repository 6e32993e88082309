package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchCommand_RewritesOnChange(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&buf)
		cmd.SetErr(&buf)
		cmd.SetArgs([]string{"watch", "--root", root, "--debounce", "50ms"})
		done <- cmd.ExecuteContext(ctx)
	}()

	// Give the watcher time to come up before generating events.
	time.Sleep(200 * time.Millisecond)

	doc := filepath.Join(root, "child.md")
	if err := os.WriteFile(doc, []byte("# Child\n\n**Inherits:** (src/Base.md)\n"), 0o644); err != nil {
		t.Fatalf("writing doc: %v", err)
	}

	eventually(t, 5*time.Second, 25*time.Millisecond, func() bool {
		data, err := os.ReadFile(doc)
		return err == nil && string(data) == rewrittenChild
	}, "watched file was not rewritten")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch should stop cleanly on cancel: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchCommand_MissingRoot(t *testing.T) {
	isolateEnv(t)

	out, err := execCommand(t, "watch", "--root", filepath.Join(t.TempDir(), "nope"), "--json")
	if err == nil {
		t.Fatal("expected error for missing root")
	}
	if code, _ := parseJSON(t, out)["code"].(float64); code != 2 {
		t.Errorf("error code = %v, want 2", code)
	}
}
