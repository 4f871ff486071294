package assetpipe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/schollz/progressbar/v3"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/parse/v2"
	parsecss "github.com/tdewolff/parse/v2/css"
)

var minifier = minify.New()

// MinifyCSS checks that src is well-formed CSS and returns the minified rendering
func MinifyCSS(src []byte) ([]byte, error) {
	err := checkSyntax(src)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	err = css.Minify(minifier, &out, bytes.NewReader(src), nil)
	if err != nil {
		return nil, eris.Wrap(err, "minifier failed")
	}

	return out.Bytes(), nil
}

var closers = map[parsecss.TokenType]byte{
	parsecss.LeftBraceToken:       '}',
	parsecss.LeftParenthesisToken: ')',
	parsecss.FunctionToken:        ')',
	parsecss.LeftBracketToken:     ']',
}

// checkSyntax walks the token stream and rejects what the minifier would silently repair: unbalanced
// blocks, unterminated strings and malformed url() tokens.
func checkSyntax(src []byte) error {
	lexer := parsecss.NewLexer(parse.NewInputBytes(src))
	stack := make([]byte, 0, 8)
	offset := 0

	fail := func(format string, args ...interface{}) error {
		line, col, _ := parse.Position(bytes.NewReader(src), offset)
		return eris.Errorf("line %d, column %d: %s", line, col, fmt.Sprintf(format, args...))
	}

	for {
		tt, data := lexer.Next()
		switch tt {
		case parsecss.ErrorToken:
			if err := lexer.Err(); err != io.EOF {
				return fail("%s", err)
			}

			if len(stack) > 0 {
				return fail("unexpected end of file, missing %q", stack[len(stack)-1])
			}
			return nil
		case parsecss.BadStringToken:
			return fail("unterminated string")
		case parsecss.BadURLToken:
			return fail("malformed url()")
		case parsecss.RightBraceToken, parsecss.RightParenthesisToken, parsecss.RightBracketToken:
			if len(stack) == 0 || stack[len(stack)-1] != data[0] {
				return fail("unexpected %q", data[0])
			}
			stack = stack[:len(stack)-1]
		default:
			if closer, ok := closers[tt]; ok {
				stack = append(stack, closer)
			}
		}

		offset += len(data)
	}
}

func newProgressBar(out io.Writer, total int) *progressbar.ProgressBar {
	if out == nil || os.Getenv("CI") == "true" {
		return progressbar.NewOptions(total, progressbar.OptionSetVisibility(false))
	}

	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription("minify"),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(out, "\n")
		}),
	)
}

// MinifyEach minifies every source file into DestDir
type MinifyEach struct{}

func (MinifyEach) Kind() StepKind {
	return StepMinify
}

func (MinifyEach) Apply(ctx context.Context, state *buildState) error {
	cfg := state.cfg

	info, err := os.Stat(cfg.SourceDir)
	if err != nil {
		return readError(cfg.SourceDir, err, "failed to open source directory")
	}

	if !info.IsDir() {
		return newError(SourceNotFound, cfg.SourceDir, eris.New("source path is not a directory"))
	}

	pattern := filepath.Join(cfg.SourceDir, cfg.SourceGlob)
	sources, err := resolvePattern(pattern)
	if err != nil {
		return newError(IOError, pattern, err)
	}

	if len(sources) == 0 {
		return newError(SourceNotFound, pattern, eris.New("no source files matched"))
	}

	outputs, err := planOutputs(cfg, sources)
	if err != nil {
		return err
	}

	// minify everything before writing anything so that a broken file leaves no partial output behind
	bar := newProgressBar(state.progress, len(sources))
	results := make([][]byte, len(sources))
	sizes := make([]int, len(sources))
	for idx, src := range sources {
		content, err := ioutil.ReadFile(src)
		if err != nil {
			return readError(src, err, "failed to read source")
		}

		sizes[idx] = len(content)
		results[idx], err = MinifyCSS(content)
		if err != nil {
			return newError(ParseError, src, err)
		}

		if err := bar.Add(1); err != nil {
			log(ctx).Debug().Err(err).Msg("failed to update progress bar")
		}
	}

	if err := bar.Finish(); err != nil {
		log(ctx).Debug().Err(err).Msg("failed to finish progress bar")
	}

	err = os.MkdirAll(cfg.DestDir, 0755)
	if err != nil {
		return writeError(cfg.DestDir, err, "failed to create destination directory")
	}

	for idx, out := range outputs {
		err = ioutil.WriteFile(out, results[idx], 0644)
		if err != nil {
			return writeError(out, err, "failed to write minified file")
		}

		log(ctx).Debug().
			Str("path", out).
			Msgf("%s -> %s (%d -> %d bytes)", filepath.Base(sources[idx]), filepath.Base(out), sizes[idx], len(results[idx]))
	}

	state.minified = outputs
	log(ctx).Info().Msgf("minified %d files into %s", len(outputs), cfg.DestDir)
	return nil
}

// planOutputs maps sources to their output paths and rejects collisions. Names are compared
// case-insensitively since the destination might live on a case-insensitive filesystem.
func planOutputs(cfg PipelineConfig, sources []string) ([]string, error) {
	outputs := make([]string, len(sources))
	seen := make(map[string]string, len(sources))
	combined := strings.ToLower(filepath.Clean(cfg.Combined))

	for idx, src := range sources {
		out := cfg.OutputPath(src)
		key := strings.ToLower(out)

		if prev, ok := seen[key]; ok {
			return nil, newError(ConfigError, out, eris.Errorf("%s and %s both minify to the same file", prev, src))
		}

		if key == combined {
			return nil, newError(ConfigError, out, eris.Errorf("%s would overwrite the combined output", src))
		}

		seen[key] = src
		outputs[idx] = out
	}

	return outputs, nil
}
