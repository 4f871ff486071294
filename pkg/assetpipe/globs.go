package assetpipe

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/syntax"
)

func shellReadDir(path string) ([]os.FileInfo, error) {
	if path == "" {
		path = "."
	}

	return ioutil.ReadDir(path)
}

// shellWord quotes the literal leading segments of a pattern so that only the glob part is expanded
// by the shell expander. This keeps directories containing spaces or quotes intact.
func shellWord(pattern string) string {
	parts := strings.Split(filepath.ToSlash(pattern), "/")
	for idx, part := range parts {
		if strings.ContainsAny(part, "*?[") {
			break
		}

		if part != "" {
			parts[idx] = "'" + strings.ReplaceAll(part, "'", `'\''`) + "'"
		}
	}

	return strings.Join(parts, "/")
}

// resolvePattern expands a glob (** is supported) into the regular files it matches. The result is sorted
// by base name and then by full path so that expansion order never depends on the filesystem.
func resolvePattern(pattern string) ([]string, error) {
	cfg := expand.Config{
		ReadDir:  shellReadDir,
		GlobStar: true,
	}

	words := make([]*syntax.Word, 0)
	parser := syntax.NewParser()
	err := parser.Words(strings.NewReader(shellWord(pattern)), func(w *syntax.Word) bool {
		words = append(words, w)
		return true
	})
	if err != nil {
		return nil, eris.Wrapf(err, "failed to parse pattern %s", pattern)
	}

	matches, err := expand.Fields(&cfg, words...)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to resolve pattern %s", pattern)
	}

	result := make([]string, 0, len(matches))
	for _, match := range matches {
		match = filepath.FromSlash(match)

		// If a pattern didn't match anything, it's returned as is. Stat filters those out along with directories.
		info, err := os.Stat(match)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, eris.Wrapf(err, "failed to check %s", match)
		}

		if info.Mode().IsRegular() {
			result = append(result, match)
		}
	}

	sortPaths(result)
	return result, nil
}

func sortPaths(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		bi, bj := filepath.Base(paths[i]), filepath.Base(paths[j])
		if bi != bj {
			return bi < bj
		}
		return paths[i] < paths[j]
	})
}
