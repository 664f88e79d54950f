package fileset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(rel), 0o644))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt")
	writeFile(t, root, "sub/b.txt")
	writeFile(t, root, "sub/deep/c.txt")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))

	set, err := Scan(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt", "sub/b.txt", "sub/deep/c.txt"}, set.Paths())
}

func TestScanEmptyDir(t *testing.T) {
	set, err := Scan(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestScanSkipsSymlinks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt")
	if err := os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	set, err := Scan(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.txt"}, set.Paths())
}
