package assetpipe

import (
	"context"

	"github.com/cortesi/moddwatch"
	"github.com/rotisserie/eris"
)

// Watch runs the pipeline once and then again whenever a file matching WatchGlobs is added, changed or
// removed. Only one run happens at a time; changes detected during a run are folded into a single
// follow-up run. Failed runs are logged and watching continues. Watch returns once ctx is cancelled, but
// lets a run that is already in progress finish first.
func (r *Runner) Watch(ctx context.Context) error {
	changes := make(chan *moddwatch.Mod, 1024)
	watcher, err := moddwatch.Watch(r.cfg.Root, r.cfg.WatchGlobs, []string{}, r.cfg.Lull, changes)
	if err != nil {
		return newError(IOError, r.cfg.Root, eris.Wrap(err, "failed to start watcher"))
	}
	defer watcher.Stop()

	runCtx := context.WithoutCancel(ctx)
	runLogged(runCtx, r.RunDefault)

	log(ctx).Info().
		Strs("patterns", r.cfg.WatchGlobs).
		Msgf("watching %s for changes", r.cfg.Root)

	watchLoop(ctx, changes, r.RunDefault)
	return nil
}

func watchLoop(ctx context.Context, changes <-chan *moddwatch.Mod, run func(context.Context) error) {
	runCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			log(ctx).Info().Msg("stopped watching")
			return
		case mod, ok := <-changes:
			if !ok || mod == nil {
				return
			}

			paths, closed := drain(changes, changedPaths(mod))
			if len(paths) > 0 {
				log(ctx).Info().
					Strs("paths", paths).
					Msgf("%d file(s) changed, rebuilding", len(paths))

				runLogged(runCtx, run)
			}

			if closed {
				return
			}
		}
	}
}

// drain collects every change that is already queued so that a burst of events leads to a single run.
// closed reports whether the watcher shut down while draining.
func drain(changes <-chan *moddwatch.Mod, paths []string) (result []string, closed bool) {
	for {
		select {
		case mod, ok := <-changes:
			if !ok || mod == nil {
				return paths, true
			}
			paths = append(paths, changedPaths(mod)...)
		default:
			return paths, false
		}
	}
}

func changedPaths(mod *moddwatch.Mod) []string {
	paths := make([]string, 0, len(mod.Added)+len(mod.Changed)+len(mod.Deleted))
	paths = append(paths, mod.Added...)
	paths = append(paths, mod.Changed...)
	paths = append(paths, mod.Deleted...)
	return paths
}

func runLogged(ctx context.Context, run func(context.Context) error) {
	err := run(ctx)
	if err != nil {
		log(ctx).Error().Err(err).Msg("build failed, waiting for further changes")
	}
}
