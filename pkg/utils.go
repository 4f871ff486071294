package pkg

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// FindUpwards looks for name in start and each of its parent directories and returns the first match.
// The returned error matches os.ErrNotExist if nothing was found.
func FindUpwards(start, name string) (string, error) {
	path, err := filepath.Abs(start)
	if err != nil {
		return "", eris.Wrapf(err, "Failed to resolve %s", start)
	}

	for {
		candidate := filepath.Join(path, name)
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate, nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			return "", eris.Wrapf(err, "Failed to check %s", candidate)
		}

		parent := filepath.Dir(path)
		if parent == path {
			break
		}
		path = parent
	}

	return "", os.ErrNotExist
}

func PrintTask(msg string) {
	colorstring.Printf("[blue][bold]==>[default] %s\n", msg)
}

func PrintSubtask(msg string) {
	colorstring.Printf("[green][bold]  ->[reset] %s\n", msg)
}

func PrintError(msg string) {
	colorstring.Printf("[red][bold]  ->[reset] %s\n", msg)
}
