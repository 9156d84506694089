package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryScanner_ScanDirectories(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"a/b", "c", ".git/objects", "a/.cache"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "file.tmpl"), []byte("x"), 0o644))

	dirs, err := NewDirectoryScanner().ScanDirectories([]string{root, filepath.Join(root, "missing")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "a"),
		filepath.Join(root, "a", "b"),
		filepath.Join(root, "c"),
	}, dirs)
}

func TestDirectoryScanner_OverlappingRoots(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))

	dirs, err := NewDirectoryScanner().ScanDirectories([]string{filepath.Join(root, "a"), root})
	require.NoError(t, err)
	assert.Len(t, dirs, 3)
}

func TestDirectoryScanner_FileRootIgnored(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "scaffold.yaml")
	require.NoError(t, os.WriteFile(file, []byte("root: {}\n"), 0o644))

	dirs, err := NewDirectoryScanner().ScanDirectories([]string{file})
	require.NoError(t, err)
	assert.Empty(t, dirs)
}
