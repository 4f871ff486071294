package settings

import (
	"os"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigtoml"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// Settings describes the tool options that are not part of the pipeline itself
type Settings struct {
	Script   string `default:"assets.star" toml:"script" usage:"Name of the pipeline script; searched in the working directory and its parents"`
	Progress bool   `default:"false" toml:"progress" usage:"Show a progress bar while minifying"`
	Debug    bool   `default:"false" toml:"debug" usage:"Print every log field and full error traces"`
	Log      struct {
		Level string `default:"info" toml:"level"`
		JSON  bool   `default:"false" toml:"json" usage:"Output JSONND instead of pretty console messages"`
	} `toml:"log"`
}

var logLevels = map[string]zerolog.Level{
	"trace":   zerolog.TraceLevel,
	"debug":   zerolog.DebugLevel,
	"info":    zerolog.InfoLevel,
	"warn":    zerolog.WarnLevel,
	"warning": zerolog.WarnLevel,
	"error":   zerolog.ErrorLevel,
	"fatal":   zerolog.FatalLevel,
}

// Loader initializes an empty settings object and returns a new Loader for this object. Values come from the
// struct defaults, assetpipe.toml and ASSETPIPE_* environment variables; command line flags are handled by cobra.
func Loader(files ...string) (*Settings, *aconfig.Loader) {
	if len(files) == 0 {
		files = []string{"assetpipe.toml"}
	}

	existing := make([]string, 0, len(files))
	for _, file := range files {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}

	cfg := Settings{}
	return &cfg, aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "ASSETPIPE",
		SkipFlags: true,
		SkipFiles: len(existing) == 0,
		Files:     existing,
		FileDecoders: map[string]aconfig.FileDecoder{
			".toml": aconfigtoml.New(),
		},
	})
}

// Load is a shortcut for Loader(files...) followed by Load and Validate
func Load(files ...string) (*Settings, error) {
	cfg, loader := Loader(files...)
	err := loader.Load()
	if err != nil {
		return nil, eris.Wrap(err, "Failed to load settings")
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate verifies that all fields have valid values
func (cfg *Settings) Validate() error {
	if cfg.Script == "" {
		return eris.New(`Invalid value for script: must not be empty`)
	}

	_, ok := logLevels[cfg.Log.Level]
	if !ok {
		return eris.Errorf(`Invalid value for log.level: %s`, cfg.Log.Level)
	}

	return nil
}

// LogLevel converts the .Log.Level field to a zerolog.Level
func (cfg *Settings) LogLevel() zerolog.Level {
	return logLevels[cfg.Log.Level]
}
