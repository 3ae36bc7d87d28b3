// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"testing/fstest"
)

// MustMkdirAll creates a directory along with any necessary parents.
// The test fails immediately if the operation fails.
func MustMkdirAll(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// MustWriteFile writes data to path, creating parent directories.
// The test fails immediately if the operation fails.
func MustWriteFile(t testing.TB, path, data string) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// WriteTree materializes an in-memory tree under root on disk.
// Directory-only entries (fstest.MapFile with ModeDir) become empty directories.
func WriteTree(t testing.TB, root string, tree fstest.MapFS) {
	t.Helper()
	for _, name := range slices.Sorted(maps.Keys(tree)) {
		f := tree[name]
		p := filepath.Join(root, filepath.FromSlash(name))
		if f.Mode.IsDir() {
			MustMkdirAll(t, p)
			continue
		}
		MustWriteFile(t, p, string(f.Data))
	}
}
