package assetpipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePattern(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"css/b.css":        "",
		"css/a.css":        "",
		"css/notes.txt":    "",
		"css/nested/a.css": "",
	})
	require.NoError(t, os.Mkdir(filepath.Join(root, "css", "dir.css"), 0755))

	matches, err := resolvePattern(filepath.Join(root, "css", "*.css"))
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "css", "a.css"),
		filepath.Join(root, "css", "b.css"),
	}, matches)

	matches, err = resolvePattern(filepath.Join(root, "css", "**", "a.css"))
	require.NoError(t, err)
	require.Contains(t, matches, filepath.Join(root, "css", "nested", "a.css"))
}

func TestResolvePatternNoMatch(t *testing.T) {
	matches, err := resolvePattern(filepath.Join(t.TempDir(), "*.css"))
	require.NoError(t, err)
	require.Empty(t, matches)

	matches, err = resolvePattern(filepath.Join(t.TempDir(), "missing", "*.css"))
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestResolvePatternQuotesDirectories(t *testing.T) {
	root := filepath.Join(t.TempDir(), "my 'odd' dir")
	writeFiles(t, root, map[string]string{"x.css": "", "y.css": ""})

	matches, err := resolvePattern(filepath.Join(root, "*.css"))
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(root, "x.css"), filepath.Join(root, "y.css")}, matches)
}

func TestSortPaths(t *testing.T) {
	paths := []string{"/b/z.css", "/b/a.css", "/a/a.css", "/c/m.css"}
	sortPaths(paths)
	require.Equal(t, []string{"/a/a.css", "/b/a.css", "/c/m.css", "/b/z.css"}, paths)
}
