package assetpipe

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
	starsyntax "go.starlark.net/syntax"
)

// DefaultBanner is rendered by RenderBanner; .Name is the package name and .Date the build date (yyyy-mm-dd).
const DefaultBanner = "/*! {{ .Name }} {{ .Date }} */\n"

// DefaultLull is the debounce window used by watch mode
const DefaultLull = 500 * time.Millisecond

// PipelineConfig contains the resolved pipeline description. All paths except WatchGlobs are absolute.
// WatchGlobs are slash-separated patterns relative to Root.
type PipelineConfig struct {
	Root        string        `yaml:"root"`
	SourceDir   string        `yaml:"source_dir"`
	SourceGlob  string        `yaml:"source_glob"`
	DestDir     string        `yaml:"dest_dir"`
	Ext         string        `yaml:"ext"`
	ConcatGlob  string        `yaml:"concat_glob"`
	Combined    string        `yaml:"combined"`
	Banner      string        `yaml:"banner"`
	PackageFile string        `yaml:"package_file"`
	PackageName string        `yaml:"package_name"`
	WatchGlobs  []string      `yaml:"watch"`
	Lull        time.Duration `yaml:"lull"`
	Brotli      bool          `yaml:"brotli"`
}

// DefaultConfig returns the default pipeline rooted at root:
// _assets/css/*.css is minified into css/*.min.css which are combined into css/site.min.css.
func DefaultConfig(root string) PipelineConfig {
	return PipelineConfig{
		Root:        root,
		SourceDir:   filepath.Join(root, "_assets", "css"),
		SourceGlob:  "*.css",
		DestDir:     filepath.Join(root, "css"),
		Ext:         ".min.css",
		ConcatGlob:  filepath.Join(root, "css", "*.min.css"),
		Combined:    filepath.Join(root, "css", "site.min.css"),
		Banner:      DefaultBanner,
		PackageFile: filepath.Join(root, "package.json"),
		WatchGlobs:  []string{"_assets/css/*.*"},
		Lull:        DefaultLull,
	}
}

// Validate checks the structural constraints of the config. It does not touch the filesystem.
func (c PipelineConfig) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"root", c.Root},
		{"source dir", c.SourceDir},
		{"source glob", c.SourceGlob},
		{"dest dir", c.DestDir},
		{"ext", c.Ext},
		{"concat glob", c.ConcatGlob},
		{"combined output", c.Combined},
	}
	for _, field := range required {
		if field.value == "" {
			return configErrorf("%s must not be empty", field.name)
		}
	}

	if !strings.HasPrefix(c.Ext, ".") {
		return configErrorf("ext %q has to start with a dot", c.Ext)
	}

	if strings.ContainsAny(c.SourceGlob, `/\`) {
		return configErrorf("source glob %q must not contain a path separator", c.SourceGlob)
	}

	if c.Lull < 0 {
		return configErrorf("watch lull must not be negative (got %s)", c.Lull)
	}

	return nil
}

// OutputPath maps a source file to its minified copy in DestDir
func (c PipelineConfig) OutputPath(src string) string {
	base := filepath.Base(src)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(c.DestDir, base+c.Ext)
}

func (c PipelineConfig) clone() PipelineConfig {
	c.WatchGlobs = append([]string(nil), c.WatchGlobs...)
	return c
}

type ScriptOption struct {
	DefaultValue starlark.String
	Help         string
}

func (o ScriptOption) Default() string {
	return o.DefaultValue.GoString()
}

// StarlarkPath is a resolved filesystem path handed to scripts by resolve_path()
type StarlarkPath string

func (p StarlarkPath) String() string {
	return starlark.String(p).String()
}

func (p StarlarkPath) Type() string {
	return "path"
}

func (p StarlarkPath) Freeze() {}

func (p StarlarkPath) Truth() starlark.Bool {
	return p != ""
}

func (p StarlarkPath) Hash() (uint32, error) {
	return starlark.String(p).Hash()
}

func (p StarlarkPath) CompareSameType(op starsyntax.Token, y_ starlark.Value, depth int) (bool, error) {
	y := y_.(StarlarkPath)

	switch op {
	case starsyntax.EQL:
		return p == y, nil
	case starsyntax.NEQ:
		return p != y, nil
	case starsyntax.LT:
		return p < y, nil
	case starsyntax.LE:
		return p <= y, nil
	case starsyntax.GT:
		return p > y, nil
	case starsyntax.GE:
		return p >= y, nil
	}

	return false, eris.Errorf("unknown operator %v", op)
}

func (p StarlarkPath) Index(i int) starlark.Value {
	return starlark.String(p[i])
}

func (p StarlarkPath) Len() int {
	return len(p)
}

func (p StarlarkPath) Slice(start, end, step int) starlark.Value {
	return starlark.String(p).Slice(start, end, step)
}
