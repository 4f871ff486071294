package assetpipe

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// Concatenate joins every file matching ConcatGlob, in lexicographic filename order, into the combined output.
// The combined output itself is never an input.
type Concatenate struct{}

func (Concatenate) Kind() StepKind {
	return StepConcat
}

func (Concatenate) Apply(ctx context.Context, state *buildState) error {
	cfg := state.cfg
	inputs, err := concatInputs(cfg)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, item := range inputs {
		content, err := ioutil.ReadFile(item)
		if err != nil {
			return readError(item, err, "failed to read concat input")
		}

		buf.Write(content)
	}

	err = os.MkdirAll(filepath.Dir(cfg.Combined), 0755)
	if err != nil {
		return writeError(filepath.Dir(cfg.Combined), err, "failed to create output directory")
	}

	err = ioutil.WriteFile(cfg.Combined, buf.Bytes(), 0644)
	if err != nil {
		return writeError(cfg.Combined, err, "failed to write combined output")
	}

	log(ctx).Info().
		Str("path", cfg.Combined).
		Msgf("combined %d files into %s (%d bytes)", len(inputs), cfg.Combined, buf.Len())
	return nil
}

func concatInputs(cfg PipelineConfig) ([]string, error) {
	matches, err := resolvePattern(cfg.ConcatGlob)
	if err != nil {
		return nil, newError(IOError, cfg.ConcatGlob, err)
	}

	combined := filepath.Clean(cfg.Combined)
	inputs := make([]string, 0, len(matches))
	for _, item := range matches {
		if filepath.Clean(item) != combined {
			inputs = append(inputs, item)
		}
	}

	if len(inputs) == 0 {
		return nil, newError(SourceNotFound, cfg.ConcatGlob, eris.New("nothing to concatenate"))
	}

	return inputs, nil
}
