package assetpipe

import (
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
)

// ErrorKind classifies why a pipeline run failed
type ErrorKind int

const (
	// UnknownError is reported for errors that did not originate in this package
	UnknownError ErrorKind = iota
	// ConfigError means the pipeline script, settings or package metadata are missing or malformed
	ConfigError
	// SourceNotFound means a glob matched no files or the source directory is absent
	SourceNotFound
	// ParseError means a source file is not valid CSS
	ParseError
	// IOError covers read, write and permission failures
	IOError
)

func (k ErrorKind) String() string {
	switch k {
	case ConfigError:
		return "config error"
	case SourceNotFound:
		return "source not found"
	case ParseError:
		return "parse error"
	case IOError:
		return "I/O error"
	default:
		return "error"
	}
}

// BuildError is the single error surfaced by a failed run. Every kind is fatal to the run that produced it.
type BuildError struct {
	Kind ErrorKind
	Step StepKind
	Path string
	Err  error
}

var _ error = (*BuildError)(nil)

func (e *BuildError) Error() string {
	msg := e.Kind.String()
	if e.Step != 0 {
		msg = fmt.Sprintf("%s (%s)", msg, e.Step)
	}

	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}

	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err.Error())
	}

	return msg
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// KindOf returns the ErrorKind carried by err or UnknownError if err is not a *BuildError
func KindOf(err error) ErrorKind {
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		return buildErr.Kind
	}

	return UnknownError
}

func newError(kind ErrorKind, path string, err error) *BuildError {
	return &BuildError{
		Kind: kind,
		Path: path,
		Err:  err,
	}
}

func configErrorf(format string, args ...interface{}) *BuildError {
	return newError(ConfigError, "", eris.Errorf(format, args...))
}

// readError classifies a failed read. Missing inputs are SourceNotFound, everything else IOError.
func readError(path string, err error, msg string) *BuildError {
	kind := IOError
	if errors.Is(err, os.ErrNotExist) {
		kind = SourceNotFound
	}

	return newError(kind, path, eris.Wrap(err, msg))
}

func writeError(path string, err error, msg string) *BuildError {
	return newError(IOError, path, eris.Wrap(err, msg))
}
