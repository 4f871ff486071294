package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dmeffert/assetpipe/pkg"
	"github.com/dmeffert/assetpipe/pkg/assetpipe"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [name=value ...]",
	Short: "Deletes the generated files",
	Long: `Deletes the minified copy of every source file along with the combined output and its compressed
copy. Other files in the destination directory are left alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, err := cmd.Flags().GetBool("dry-run")
		if err != nil {
			return err
		}

		env, err := setup(cmd, args)
		if err != nil {
			return err
		}
		defer env.stop()

		cfg, _, err := env.loadPipeline(cmd)
		if err != nil {
			return env.fail(err, "Failed to load the pipeline")
		}

		var items []string
		if dryRun {
			pkg.PrintTask("Would delete")
			items, err = assetpipe.CleanTargets(cfg)
		} else {
			pkg.PrintTask("Cleaning " + cfg.PackageName)
			items, err = assetpipe.Clean(env.ctx, cfg)
		}
		if err != nil {
			return env.fail(err, "Clean failed")
		}

		for _, item := range items {
			if rel, err := filepath.Rel(cfg.Root, item); err == nil {
				item = rel
			}
			pkg.PrintSubtask(item)
		}

		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolP("dry-run", "n", false, "only list the files that would be deleted")
	rootCmd.AddCommand(cleanCmd)
}
