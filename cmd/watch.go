package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmeffert/assetpipe/pkg"
	"github.com/dmeffert/assetpipe/pkg/assetpipe"
)

var watchCmd = &cobra.Command{
	Use:   "watch [name=value ...]",
	Short: "Builds once, then rebuilds whenever a source file changes",
	Long: `Runs the pipeline and keeps watching the configured watch patterns. Changes that arrive while a
build is running are combined into a single rebuild. Failed builds are reported and watching continues
until the process is interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd, args)
		if err != nil {
			return err
		}
		defer env.stop()

		cfg, _, err := env.loadPipeline(cmd)
		if err != nil {
			return env.fail(err, "Failed to load the pipeline")
		}

		pkg.PrintTask("Watching " + strings.Join(cfg.WatchGlobs, ", "))
		runner := assetpipe.NewRunner(cfg, env.runnerOptions()...)
		err = runner.Watch(env.ctx)
		if err != nil {
			return env.fail(err, "Watch failed")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
