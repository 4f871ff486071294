package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dmeffert/assetpipe/pkg"
	"github.com/dmeffert/assetpipe/pkg/assetpipe"
	"github.com/dmeffert/assetpipe/pkg/settings"
)

var rootCmd = &cobra.Command{
	Use:   "assetpipe [name=value ...]",
	Short: "Minifies and combines CSS assets",
	Long: `assetpipe minifies every CSS file in the source directory, concatenates the results into a single
file and prepends a banner with the package name and the build date.

The pipeline is described by the first assets.star file found in the working directory or one of its
parents. Without one, _assets/css/*.css is built into css/*.min.css and css/site.min.css.
Arguments of the form name=value set options declared by the script.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBuild,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("script", "s", "", "pipeline script (default assets.star, searched upwards)")
	flags.Bool("progress", false, "show a progress bar while minifying")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.Bool("json", false, "output JSON log lines instead of pretty console messages")
	flags.Bool("debug", false, "print every log field and full error traces")
}

// exitError marks errors that have already been logged
type exitError struct {
	err error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// ExitCode maps an error returned by a command to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch assetpipe.KindOf(err) {
	case assetpipe.ConfigError:
		return 2
	case assetpipe.SourceNotFound:
		return 3
	case assetpipe.ParseError:
		return 4
	case assetpipe.IOError:
		return 5
	default:
		return 1
	}
}

// Execute runs the CLI and returns the exit code for the process
func Execute() int {
	err := rootCmd.Execute()
	if err != nil {
		var logged *exitError
		if !errors.As(err, &logged) {
			pkg.PrintError(err.Error())
		}
	}

	return ExitCode(err)
}

func configError(err error) error {
	return &assetpipe.BuildError{
		Kind: assetpipe.ConfigError,
		Err:  err,
	}
}

type environment struct {
	ctx      context.Context
	stop     context.CancelFunc
	logger   *zerolog.Logger
	settings *settings.Settings
	options  map[string]string
}

// fail logs err and marks it as reported
func (env *environment) fail(err error, msg string) error {
	env.logger.Error().Err(err).Msg(msg)
	return &exitError{err: err}
}

func setup(cmd *cobra.Command, args []string) (*environment, error) {
	cfg, err := settings.Load()
	if err != nil {
		return nil, configError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("script") {
		cfg.Script, _ = flags.GetString("script")
	}
	if flags.Changed("progress") {
		cfg.Progress, _ = flags.GetBool("progress")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("json") {
		cfg.Log.JSON, _ = flags.GetBool("json")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, configError(err)
	}

	options, err := parseOptions(args)
	if err != nil {
		return nil, configError(err)
	}

	debug := cfg.Debug
	var logger zerolog.Logger
	if cfg.Log.JSON {
		zerolog.ErrorMarshalFunc = func(err error) interface{} {
			return eris.ToJSON(err, debug)
		}
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		zerolog.ErrorMarshalFunc = func(err error) interface{} {
			return eris.ToString(err, debug)
		}
		logger = zerolog.New(NewConsoleWriter(os.Stderr, debug))
	}
	logger = logger.Level(cfg.LogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = assetpipe.WithLogger(ctx, &logger)

	return &environment{
		ctx:      ctx,
		stop:     stop,
		logger:   &logger,
		settings: cfg,
		options:  options,
	}, nil
}

func parseOptions(args []string) (map[string]string, error) {
	options := make(map[string]string)
	for _, part := range args {
		pos := strings.Index(part, "=")
		if pos < 1 {
			return nil, eris.Errorf("unexpected argument %s, expected name=value", part)
		}

		options[part[:pos]] = part[pos+1:]
	}

	return options, nil
}

// loadPipeline finds the pipeline script and resolves the pipeline config
func (env *environment) loadPipeline(cmd *cobra.Command) (assetpipe.PipelineConfig, map[string]assetpipe.ScriptOption, error) {
	wd, err := os.Getwd()
	if err != nil {
		return assetpipe.PipelineConfig{}, nil, eris.Wrap(err, "Failed to retrieve the current working directory")
	}

	script := env.settings.Script
	explicit := cmd.Flags().Changed("script") || filepath.IsAbs(script) || strings.ContainsRune(script, filepath.Separator)
	if explicit {
		if _, err := os.Stat(script); err != nil {
			return assetpipe.PipelineConfig{}, nil, configError(eris.Wrapf(err, "Failed to open pipeline script %s", script))
		}
	} else {
		script, err = pkg.FindUpwards(wd, script)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return assetpipe.PipelineConfig{}, nil, err
			}
			script = ""
		} else {
			script, err = filepath.Rel(wd, script)
			if err != nil {
				return assetpipe.PipelineConfig{}, nil, eris.Wrap(err, "Failed to simplify path")
			}
		}
	}

	return assetpipe.Load(env.ctx, wd, script, env.options)
}

func (env *environment) runnerOptions() []assetpipe.Option {
	opts := []assetpipe.Option{}
	if env.settings.Progress {
		opts = append(opts, assetpipe.WithProgress(os.Stderr))
	}
	return opts
}
