package assetpipe

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const pipelineScript = `
mode = option("mode", "dev", "build mode (dev or prod)")

def configure():
    if not isdir("styles"):
        error("styles is missing")

    pipeline(
        src = "styles",
        pattern = "*.css",
        dest = resolve_path("public", "css"),
        banner = "/* {{ .Name }} {{ .Date }} */\n" if mode == "prod" else "",
        name = read_yaml("meta.yml", "project.name", "unknown"),
        watch = ["styles/*.css", "//meta.yml"],
        lull_ms = 50,
        brotli = mode == "prod",
    )
`

func TestLoadScript(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"assets.star":      pipelineScript,
		"meta.yml":         "project:\n  name: styleguide\n",
		"styles/main.css":  ".a{color:red}",
		"public/.keep":     "",
		"package.json":     `{"name": "ignored"}`,
		"styles/print.css": "",
	})

	cfg, options, err := LoadScript(testContext(t), filepath.Join(root, "assets.star"), map[string]string{"mode": "prod"})
	require.NoError(t, err)

	require.Equal(t, root, cfg.Root)
	require.Equal(t, filepath.Join(root, "styles"), cfg.SourceDir)
	require.Equal(t, "*.css", cfg.SourceGlob)
	require.Equal(t, filepath.Join(root, "public", "css"), cfg.DestDir)
	require.Equal(t, ".min.css", cfg.Ext)
	require.Equal(t, filepath.Join(root, "public", "css", "*.min.css"), cfg.ConcatGlob)
	require.Equal(t, filepath.Join(root, "public", "css", "site.min.css"), cfg.Combined)
	require.Equal(t, "/* {{ .Name }} {{ .Date }} */\n", cfg.Banner)
	require.Equal(t, "styleguide", cfg.PackageName)
	require.Equal(t, []string{"styles/*.css", "meta.yml"}, cfg.WatchGlobs)
	require.Equal(t, 50*time.Millisecond, cfg.Lull)
	require.True(t, cfg.Brotli)

	require.Contains(t, options, "mode")
	require.Equal(t, "dev", options["mode"].Default())
	require.Equal(t, "build mode (dev or prod)", options["mode"].Help)
}

func TestLoadScriptDefaults(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"assets.star":  pipelineScript,
		"meta.yml":     "project: {}\n",
		"styles/a.css": ".a{}",
	})

	cfg, _, err := LoadScript(testContext(t), filepath.Join(root, "assets.star"), nil)
	require.NoError(t, err)

	require.Equal(t, DefaultBanner, cfg.Banner)
	require.Equal(t, "unknown", cfg.PackageName)
	require.False(t, cfg.Brotli)
}

func TestLoadScriptFailures(t *testing.T) {
	cases := map[string]string{
		"no pipeline":     "x = 1\n",
		"script error":    "error(\"broken\")\n",
		"late option":     "def configure():\n    option(\"mode\")\n    pipeline()\n",
		"pipeline twice":  "pipeline()\npipeline()\n",
		"watch outside":   "pipeline(watch = [\"../other/*.css\"])\n",
		"negative lull":   "pipeline(lull_ms = -5)\n",
		"configure value": "configure = 1\npipeline()\n",
		"bad path type":   "pipeline(src = 1)\n",
		"syntax":          "pipeline(\n",
	}

	for name, script := range cases {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			writeFiles(t, root, map[string]string{"assets.star": script})

			_, _, err := LoadScript(testContext(t), filepath.Join(root, "assets.star"), nil)
			require.Error(t, err)
			require.Equal(t, ConfigError, KindOf(err))
		})
	}
}

func TestLoadWithoutScript(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"package.json": `{"name": "mypkg", "version": "1.2.0"}`})

	cfg, options, err := Load(testContext(t), root, "", nil)
	require.NoError(t, err)
	require.Empty(t, options)

	expected := DefaultConfig(root)
	expected.PackageName = "mypkg"
	require.Equal(t, expected, cfg)
}

func TestLoadWithoutPackage(t *testing.T) {
	_, _, err := Load(testContext(t), t.TempDir(), "", nil)
	require.Equal(t, ConfigError, KindOf(err))
}

func TestLoadScriptName(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"build/assets.star": "pipeline(src = \"//styles\", name = \"named\", package = \"//missing.json\")\n",
	})

	cfg, _, err := Load(testContext(t), root, filepath.Join(root, "build", "assets.star"), nil)
	require.NoError(t, err)
	require.Equal(t, "named", cfg.PackageName)
	require.Equal(t, filepath.Join(root, "build", "styles"), cfg.SourceDir)
}
