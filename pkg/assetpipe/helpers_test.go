package assetpipe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var buildDate = time.Date(2024, time.January, 1, 12, 30, 0, 0, time.UTC)

func testContext(t *testing.T) context.Context {
	t.Helper()

	logger := zerolog.Nop()
	return WithLogger(context.Background(), &logger)
}

// writeFiles creates the given files (slash-separated paths relative to root) along with their parents
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func minified(t *testing.T, src string) string {
	t.Helper()

	out, err := MinifyCSS([]byte(src))
	require.NoError(t, err)
	return string(out)
}
