package assetpipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"_assets/css/a.css": cssA,
		"_assets/css/b.css": cssB,
		"css/vendor.css":    ".v{top:0}",
	})
	cfg.Brotli = true
	require.NoError(t, newTestRunner(cfg).RunDefault(testContext(t)))

	targets, err := CleanTargets(cfg)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(cfg.DestDir, "a.min.css"),
		filepath.Join(cfg.DestDir, "b.min.css"),
		cfg.Combined,
		cfg.Combined + ".br",
	}, targets)

	removed, err := Clean(testContext(t), cfg)
	require.NoError(t, err)
	require.Equal(t, targets, removed)

	for _, item := range removed {
		_, err = os.Stat(item)
		require.True(t, os.IsNotExist(err), item)
	}

	require.FileExists(t, filepath.Join(cfg.DestDir, "vendor.css"))

	removed, err = Clean(testContext(t), cfg)
	require.NoError(t, err)
	require.Empty(t, removed)
}

func TestCleanRefusesDirectories(t *testing.T) {
	cfg := testConfig(t, map[string]string{"_assets/css/a.css": cssA})
	require.NoError(t, os.MkdirAll(cfg.Combined, 0755))

	_, err := Clean(testContext(t), cfg)
	require.Equal(t, IOError, KindOf(err))
}
