package assetpipe

import (
	"context"
	"io"
	"time"
)

// StepKind identifies a BuildStep
type StepKind int

const (
	StepMinify StepKind = iota + 1
	StepConcat
	StepBanner
	StepCompress
)

func (k StepKind) String() string {
	switch k {
	case StepMinify:
		return "minify"
	case StepConcat:
		return "concat"
	case StepBanner:
		return "banner"
	case StepCompress:
		return "compress"
	default:
		return "unknown"
	}
}

// BuildStep is one stage of the pipeline. The concrete steps are MinifyEach, Concatenate, PrependBanner
// and Compress.
type BuildStep interface {
	Kind() StepKind
	Apply(ctx context.Context, state *buildState) error
}

// buildState is shared by the steps of a single run
type buildState struct {
	cfg      PipelineConfig
	now      time.Time
	progress io.Writer

	// minified lists the files written by MinifyEach
	minified []string
}

// Steps returns the fixed step order for cfg
func Steps(cfg PipelineConfig) []BuildStep {
	steps := []BuildStep{
		MinifyEach{},
		Concatenate{},
		PrependBanner{},
	}

	if cfg.Brotli {
		steps = append(steps, Compress{})
	}

	return steps
}
