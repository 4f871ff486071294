package assetpipe

import (
	"context"
	"io"
	"os"

	"github.com/andybalholm/brotli"
)

// Compress writes a brotli compressed copy of the combined output next to it (site.min.css.br)
type Compress struct{}

func (Compress) Kind() StepKind {
	return StepCompress
}

func (Compress) Apply(ctx context.Context, state *buildState) error {
	src := state.cfg.Combined
	dest := src + ".br"

	in, err := os.Open(src)
	if err != nil {
		return readError(src, err, "failed to open combined output")
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return writeError(dest, err, "failed to create compressed output")
	}

	brw := brotli.NewWriterLevel(out, brotli.BestCompression)
	size, err := io.Copy(brw, in)
	if err != nil {
		out.Close()
		return writeError(dest, err, "failed to compress")
	}

	err = brw.Close()
	if err != nil {
		out.Close()
		return writeError(dest, err, "failed to compress")
	}

	err = out.Close()
	if err != nil {
		return writeError(dest, err, "failed to close compressed output")
	}

	log(ctx).Info().
		Str("path", dest).
		Msgf("compressed %s (%d bytes)", dest, size)
	return nil
}
