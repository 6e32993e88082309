package batch

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates rel under root, making parent directories as needed.
func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("mkdir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
	return path
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md", "")
	writeFile(t, root, "a/child.md", "")
	writeFile(t, root, "a/notes.txt", "")
	writeFile(t, root, "a/deep/NOTES.MD", "")

	files, err := Discover(root, []string{".md"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	want := []string{
		filepath.Join(root, "a", "child.md"),
		filepath.Join(root, "a", "deep", "NOTES.MD"),
		filepath.Join(root, "b.md"),
	}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestDiscoverMultipleExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "")
	writeFile(t, root, "b.markdown", "")
	writeFile(t, root, "c.txt", "")

	files, err := Discover(root, []string{".md", ".markdown"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("files = %v, want a.md and b.markdown", files)
	}
}

func TestDiscoverEmptyTree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sub/ignored.txt", "")

	files, err := Discover(root, []string{".md"})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("files = %v, want none", files)
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	if _, err := Discover(filepath.Join(t.TempDir(), "absent"), []string{".md"}); err == nil {
		t.Fatal("expected error for missing root")
	}
}
