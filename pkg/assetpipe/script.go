package assetpipe

import (
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.starlark.net/starlark"
)

type parserCtx struct {
	ctx          context.Context
	options      map[string]ScriptOption
	optionValues map[string]string
	docCache     map[string]interface{}
	filepath     string
	projectRoot  string
	pipeline     *PipelineConfig
	initPhase    bool
}

// * Helpers

func getCtx(thread *starlark.Thread) *parserCtx {
	return thread.Local("parserCtx").(*parserCtx)
}

type starlarkIterable interface {
	Len() int
	Iterate() starlark.Iterator
}

func starlarkIterable2stringSlice(input starlarkIterable, field string) ([]string, error) {
	if value, ok := input.(*starlark.List); ok && value == nil {
		return []string{}, nil
	}

	result := make([]string, 0, input.Len())
	iter := input.Iterate()
	defer iter.Done()

	var item starlark.Value
	for iter.Next(&item) {
		switch value := item.(type) {
		case starlark.String:
			result = append(result, value.GoString())
		case StarlarkPath:
			result = append(result, string(value))
		default:
			return nil, eris.Errorf("expected all items in %s to be strings but found %s", field, item.Type())
		}
	}
	return result, nil
}

// pathValue accepts either a string or a path returned by resolve_path()
func pathValue(value starlark.Value, field string) (string, bool, error) {
	switch value := value.(type) {
	case nil:
		return "", false, nil
	case starlark.NoneType:
		return "", false, nil
	case starlark.String:
		return value.GoString(), true, nil
	case StarlarkPath:
		return string(value), true, nil
	default:
		return "", false, eris.Errorf("%s: got %s, want string or path", field, value.Type())
	}
}

// watchPattern turns a script path into a pattern relative to the project root as expected by the watcher
func watchPattern(ctx *parserCtx, pattern string) (string, error) {
	if strings.HasPrefix(pattern, "//") {
		return pattern[2:], nil
	}

	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(filepath.Dir(ctx.filepath), pattern)
	}

	rel, err := filepath.Rel(ctx.projectRoot, pattern)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", eris.Errorf("watch pattern %s is outside of the project root %s", pattern, ctx.projectRoot)
	}

	return filepath.ToSlash(rel), nil
}

func info(thread *starlark.Thread, msg string, args ...interface{}) {
	ctx := getCtx(thread)
	pos := thread.CallFrame(1).Pos

	filepath := simplifyPath(ctx, ctx.filepath)

	log(ctx.ctx).Info().
		Msgf("%s:%d:%d: %s", filepath, pos.Line, pos.Col, fmt.Sprintf(msg, args...))
}

func warn(thread *starlark.Thread, msg string, args ...interface{}) {
	ctx := getCtx(thread)
	pos := thread.CallFrame(1).Pos

	filepath := simplifyPath(ctx, ctx.filepath)

	log(ctx.ctx).Warn().
		Msgf("%s:%d:%d: %s", filepath, pos.Line, pos.Col, fmt.Sprintf(msg, args...))
}

// * Builtin functions

func option(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	var defaultValue starlark.String
	var help string

	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "name", &name, "default?", &defaultValue, "help?", &help)
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	if !ctx.initPhase {
		return nil, eris.New("can only be called during the init phase (in the global scope)")
	}

	ctx.options[name] = ScriptOption{
		DefaultValue: defaultValue,
		Help:         help,
	}

	value, ok := ctx.optionValues[name]
	if ok {
		return starlark.String(value), nil
	}

	return defaultValue, nil
}

func pipeline(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var src, dest, concat, combined, pkgFile starlark.Value
	var pattern, ext, banner, name starlark.String
	var watch *starlark.List
	var brotli bool
	lullMs := -1

	err := starlark.UnpackArgs(fn.Name(), args, kwargs, "src?", &src, "pattern?", &pattern, "dest?", &dest,
		"ext?", &ext, "concat?", &concat, "combined?", &combined, "banner?", &banner, "package?", &pkgFile,
		"name?", &name, "watch?", &watch, "lull_ms?", &lullMs, "brotli?", &brotli)
	if err != nil {
		return nil, err
	}

	ctx := getCtx(thread)
	if ctx.pipeline != nil {
		return nil, eris.New("pipeline() has already been called")
	}

	cfg := DefaultConfig(ctx.projectRoot)

	if value, ok, err := pathValue(src, "src"); err != nil {
		return nil, err
	} else if ok {
		cfg.SourceDir = normalizePath(ctx, value)
	}

	if pattern != "" {
		cfg.SourceGlob = pattern.GoString()
	}

	if ext != "" {
		cfg.Ext = ext.GoString()
	}

	destValue, destSet, err := pathValue(dest, "dest")
	if err != nil {
		return nil, err
	}
	if destSet {
		cfg.DestDir = normalizePath(ctx, destValue)
	}

	// concat and combined follow dest and ext unless they are set explicitly
	if value, ok, err := pathValue(concat, "concat"); err != nil {
		return nil, err
	} else if ok {
		cfg.ConcatGlob = normalizePath(ctx, value)
	} else if destSet || ext != "" {
		cfg.ConcatGlob = filepath.Join(cfg.DestDir, "*"+cfg.Ext)
	}

	if value, ok, err := pathValue(combined, "combined"); err != nil {
		return nil, err
	} else if ok {
		cfg.Combined = normalizePath(ctx, value)
	} else if destSet || ext != "" {
		cfg.Combined = filepath.Join(cfg.DestDir, "site"+cfg.Ext)
	}

	if banner != "" {
		cfg.Banner = banner.GoString()
	}

	if value, ok, err := pathValue(pkgFile, "package"); err != nil {
		return nil, err
	} else if ok {
		cfg.PackageFile = normalizePath(ctx, value)
	}

	cfg.PackageName = name.GoString()

	if watch != nil {
		patterns, err := starlarkIterable2stringSlice(watch, "watch")
		if err != nil {
			return nil, err
		}

		cfg.WatchGlobs = make([]string, len(patterns))
		for idx, item := range patterns {
			cfg.WatchGlobs[idx], err = watchPattern(ctx, item)
			if err != nil {
				return nil, err
			}
		}
	}

	if lullMs != -1 {
		if lullMs < 0 {
			return nil, eris.Errorf("lull_ms: got %d, want a positive number", lullMs)
		}
		cfg.Lull = time.Duration(lullMs) * time.Millisecond
	}

	cfg.Brotli = brotli

	ctx.pipeline = &cfg
	return starlark.None, nil
}

// LoadScript executes a Starlark pipeline script and returns the pipeline it declared along with the options
// it accepts. The script's directory is the project root; relative paths are resolved against it. If the script
// defines a configure() function, it's called after the global scope has been executed.
func LoadScript(ctx context.Context, filename string, options map[string]string) (PipelineConfig, map[string]ScriptOption, error) {
	filename, err := filepath.Abs(filename)
	if err != nil {
		return PipelineConfig{}, nil, newError(ConfigError, filename, eris.Wrap(err, "failed to resolve script path"))
	}

	builtins := starlark.StringDict{
		"OS":           starlark.String(runtime.GOOS),
		"ARCH":         starlark.String(runtime.GOARCH),
		"info":         starlark.NewBuiltin("info", starInfo),
		"warn":         starlark.NewBuiltin("warn", starWarn),
		"error":        starlark.NewBuiltin("error", starError),
		"resolve_path": starlark.NewBuiltin("resolve_path", resolvePath),
		"option":       starlark.NewBuiltin("option", option),
		"getenv":       starlark.NewBuiltin("getenv", getenv),
		"read_yaml":    starlark.NewBuiltin("read_yaml", readYaml),
		"read_json":    starlark.NewBuiltin("read_json", readJSON),
		"isdir":        starlark.NewBuiltin("isdir", starIsdir),
		"isfile":       starlark.NewBuiltin("isfile", starIsfile),
		"pipeline":     starlark.NewBuiltin("pipeline", pipeline),
	}

	thread := &starlark.Thread{
		Name: "main",
		Print: func(thread *starlark.Thread, msg string) {
			log(ctx).Info().Str("thread", thread.Name).Msg(msg)
		},
	}
	threadCtx := parserCtx{
		ctx:          ctx,
		filepath:     filename,
		projectRoot:  filepath.Dir(filename),
		options:      make(map[string]ScriptOption),
		optionValues: options,
		docCache:     make(map[string]interface{}),
		initPhase:    true,
	}
	thread.SetLocal("parserCtx", &threadCtx)

	script, err := ioutil.ReadFile(filename)
	if err != nil {
		return PipelineConfig{}, nil, newError(ConfigError, filename, eris.Wrap(err, "failed to read file"))
	}

	scriptName := simplifyPath(&threadCtx, filename)
	globals, err := starlark.ExecFile(thread, scriptName, script, builtins)
	if err != nil {
		return PipelineConfig{}, nil, scriptError(filename, err, "failed to execute")
	}

	if configure, ok := globals["configure"]; ok {
		configureFunc, ok := configure.(starlark.Callable)
		if !ok {
			return PipelineConfig{}, nil, configErrorf("%s did declare a configure value but it's not a function", scriptName)
		}

		threadCtx.initPhase = false
		_, err = starlark.Call(thread, configureFunc, make(starlark.Tuple, 0), make([]starlark.Tuple, 0))
		if err != nil {
			return PipelineConfig{}, nil, scriptError(filename, err, "failed configure call")
		}
	}

	for name := range options {
		if _, declared := threadCtx.options[name]; !declared {
			log(ctx).Warn().Msgf("%s does not declare the option %s", scriptName, name)
		}
	}

	if threadCtx.pipeline == nil {
		return PipelineConfig{}, threadCtx.options, configErrorf("%s never called pipeline()", scriptName)
	}

	return *threadCtx.pipeline, threadCtx.options, nil
}

func scriptError(filename string, err error, msg string) *BuildError {
	if evalError, ok := err.(*starlark.EvalError); ok {
		return newError(ConfigError, filename, eris.Errorf("%s:\n%s", msg, evalError.Backtrace()))
	}
	return newError(ConfigError, filename, eris.Wrap(err, msg))
}

// Load resolves the pipeline for a build. If script is empty, the defaults rooted at root are used. The package
// name is read from the package metadata file unless the script already set it.
func Load(ctx context.Context, root, script string, options map[string]string) (PipelineConfig, map[string]ScriptOption, error) {
	var cfg PipelineConfig
	var declared map[string]ScriptOption

	if script != "" {
		var err error
		cfg, declared, err = LoadScript(ctx, script, options)
		if err != nil {
			return cfg, declared, err
		}
	} else {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return cfg, nil, newError(ConfigError, root, eris.Wrap(err, "failed to resolve project root"))
		}

		log(ctx).Debug().Msgf("no pipeline script found, using defaults for %s", absRoot)
		cfg = DefaultConfig(absRoot)
		declared = map[string]ScriptOption{}
	}

	if cfg.PackageName == "" {
		meta, err := ReadPackage(cfg.PackageFile)
		if err != nil {
			return cfg, declared, err
		}
		cfg.PackageName = meta.Name
	}

	err := cfg.Validate()
	if err != nil {
		return cfg, declared, err
	}

	return cfg, declared, nil
}
