package assetpipe

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aidarkhanov/nanoid"
	"github.com/rs/zerolog"
)

// Option customizes a Runner
type Option func(*Runner)

// WithClock replaces time.Now as the source of the banner date
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithProgress renders a progress bar to out while files are minified
func WithProgress(out io.Writer) Option {
	return func(r *Runner) {
		r.progress = out
	}
}

// Runner executes the pipeline described by a PipelineConfig. The config is copied on construction and
// never changes afterwards.
type Runner struct {
	cfg      PipelineConfig
	steps    []BuildStep
	now      func() time.Time
	progress io.Writer
}

// NewRunner creates a runner for cfg
func NewRunner(cfg PipelineConfig, opts ...Option) *Runner {
	cfg = cfg.clone()
	r := &Runner{
		cfg:   cfg,
		steps: Steps(cfg),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Config returns a copy of the runner's config
func (r *Runner) Config() PipelineConfig {
	return r.cfg.clone()
}

// RunDefault executes MinifyEach, Concatenate and PrependBanner (and Compress if enabled) in that order.
// The first failing step aborts the run; its *BuildError is returned. A cancelled ctx only prevents a run from
// starting; a run in progress always completes.
func (r *Runner) RunDefault(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	err := r.cfg.Validate()
	if err != nil {
		return err
	}

	ctx = withLogFields(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Str("run", nanoid.New())
	})

	start := time.Now()
	state := &buildState{
		cfg:      r.cfg,
		now:      r.now(),
		progress: r.progress,
	}

	ctx = context.WithoutCancel(ctx)
	for _, step := range r.steps {
		kind := step.Kind()
		stepCtx := withLogFields(ctx, func(c zerolog.Context) zerolog.Context {
			return c.Str("step", kind.String())
		})

		err = step.Apply(stepCtx, state)
		if err != nil {
			var buildErr *BuildError
			if !errors.As(err, &buildErr) {
				buildErr = newError(UnknownError, "", err)
			}

			if buildErr.Step == 0 {
				buildErr.Step = kind
			}
			return buildErr
		}
	}

	log(ctx).Info().
		Str("path", r.cfg.Combined).
		Msgf("built %s in %s", r.cfg.Combined, time.Since(start).Round(time.Millisecond))
	return nil
}
