package assetpipe

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := newError(ParseError, "a.css", fmt.Errorf("line 1, column 5: unexpected '}'"))
	err.Step = StepMinify

	require.Equal(t, ParseError, KindOf(err))
	require.Equal(t, ParseError, KindOf(fmt.Errorf("build: %w", err)))
	require.Equal(t, UnknownError, KindOf(fmt.Errorf("plain")))
	require.Equal(t, "parse error (minify): a.css: line 1, column 5: unexpected '}'", err.Error())
}

func TestReadErrorKinds(t *testing.T) {
	_, err := os.ReadFile("/does/not/exist.css")
	require.Equal(t, SourceNotFound, readError("/does/not/exist.css", err, "failed").Kind)
	require.Equal(t, IOError, readError("x", os.ErrPermission, "failed").Kind)
	require.Equal(t, IOError, writeError("x", os.ErrNotExist, "failed").Kind)
}
