// Package batch discovers documentation files under a root directory and
// runs the rebase pipeline over them in sequence.
package batch

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Discover walks root and returns every file whose name ends with one of
// the extensions, compared case-insensitively. Paths come back sorted
// lexicographically for deterministic processing order. A missing or
// unreadable root fails the walk.
func Discover(root string, extensions []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if MatchesExtension(d.Name(), extensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// MatchesExtension reports whether name ends with one of the extensions,
// compared case-insensitively.
func MatchesExtension(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, e := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(e)) {
			return true
		}
	}
	return false
}
