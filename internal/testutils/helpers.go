// Package testutils holds filesystem fixtures shared by the package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFile writes content to rel below root with mode 0644, creating
// parent directories.
func WriteFile(t testing.TB, root, rel, content string) string {
	t.Helper()
	return WriteFileMode(t, root, rel, []byte(content), 0644)
}

// WriteFileMode writes raw content to rel below root with the given mode.
func WriteFileMode(t testing.TB, root, rel string, content []byte, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, content, perm))
	// WriteFile is subject to the umask
	require.NoError(t, os.Chmod(path, perm))
	return path
}

// WriteTree writes every file of files, keyed by slash-separated path.
func WriteTree(t testing.TB, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		WriteFile(t, root, rel, content)
	}
}

// Snapshot maps every relative path below root to its content; directories
// map to "<dir>".
func Snapshot(t testing.TB, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	require.NoError(t, filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if info.IsDir() {
			out[rel] = "<dir>"
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	}))
	return out
}

// AssertFilePermissions checks the permission bits of path
func AssertFilePermissions(t testing.TB, path string, expectedMode os.FileMode) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)

	actualMode := info.Mode().Perm()
	require.Equal(t, expectedMode, actualMode,
		"File %s has incorrect permissions: got %o, want %o",
		path, actualMode, expectedMode)
}
