package assetpipe

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// CleanTargets lists the existing files a build of cfg produces: the minified copy of every current source,
// the combined output and its brotli copy. Stale outputs of deleted sources are not included.
func CleanTargets(cfg PipelineConfig) ([]string, error) {
	sources, err := resolvePattern(filepath.Join(cfg.SourceDir, cfg.SourceGlob))
	if err != nil {
		return nil, newError(IOError, cfg.SourceDir, err)
	}

	candidates := make([]string, 0, len(sources)+2)
	for _, src := range sources {
		candidates = append(candidates, cfg.OutputPath(src))
	}
	candidates = append(candidates, cfg.Combined, cfg.Combined+".br")

	targets := make([]string, 0, len(candidates))
	for _, item := range candidates {
		info, err := os.Stat(item)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, readError(item, err, "could not stat output")
		}

		if info.IsDir() {
			return nil, newError(IOError, item, eris.New("expected a file but found a directory"))
		}

		targets = append(targets, item)
	}

	return targets, nil
}

// Clean deletes the files returned by CleanTargets and returns them
func Clean(ctx context.Context, cfg PipelineConfig) ([]string, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	targets, err := CleanTargets(cfg)
	if err != nil {
		return nil, err
	}

	for _, item := range targets {
		err = os.Remove(item)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, writeError(item, err, "could not delete output")
		}

		log(ctx).Debug().Str("path", item).Msgf("deleted %s", item)
	}

	log(ctx).Info().Msgf("deleted %d files", len(targets))
	return targets, nil
}
