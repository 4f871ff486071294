package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmeffert/assetpipe/pkg"
	"github.com/dmeffert/assetpipe/pkg/assetpipe"
)

var buildCmd = &cobra.Command{
	Use:   "build [name=value ...]",
	Short: "Runs the pipeline once",
	Long: `Minifies every source file, combines the minified files and prepends the banner. Exits with a
non-zero status if any step fails.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd, args)
	if err != nil {
		return err
	}
	defer env.stop()

	cfg, _, err := env.loadPipeline(cmd)
	if err != nil {
		return env.fail(err, "Failed to load the pipeline")
	}

	pkg.PrintTask("Building " + cfg.PackageName)
	runner := assetpipe.NewRunner(cfg, env.runnerOptions()...)
	err = runner.RunDefault(env.ctx)
	if err != nil {
		return env.fail(err, "Build failed")
	}

	for _, path := range builtFiles(cfg) {
		if rel, err := filepath.Rel(cfg.Root, path); err == nil {
			path = rel
		}
		pkg.PrintSubtask(path)
	}

	return nil
}

func builtFiles(cfg assetpipe.PipelineConfig) []string {
	files := []string{cfg.Combined}
	if cfg.Brotli {
		files = append(files, cfg.Combined+".br")
	}
	return files
}
