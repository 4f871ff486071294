package assetpipe

import (
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// PackageMeta is the subset of package metadata the pipeline cares about
type PackageMeta struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// ReadPackage loads package metadata from a package.json file or, for .yml/.yaml files, from YAML.
// A missing file, a malformed document or an empty name is a ConfigError.
func ReadPackage(path string) (PackageMeta, error) {
	var meta PackageMeta

	content, err := ioutil.ReadFile(path)
	if err != nil {
		return meta, newError(ConfigError, path, eris.Wrap(err, "failed to read package metadata"))
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(content, &meta)
	default:
		err = json.Unmarshal(content, &meta)
	}
	if err != nil {
		return meta, newError(ConfigError, path, eris.Wrap(err, "failed to parse package metadata"))
	}

	meta.Name = strings.TrimSpace(meta.Name)
	if meta.Name == "" {
		return meta, newError(ConfigError, path, eris.New("package metadata has no name"))
	}

	return meta, nil
}
