package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config [name=value ...]",
	Short: "Prints the resolved pipeline",
	Long:  `Loads the pipeline script and package metadata and prints the resulting configuration as YAML.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd, args)
		if err != nil {
			return err
		}
		defer env.stop()

		cfg, options, err := env.loadPipeline(cmd)
		if err != nil {
			return env.fail(err, "Failed to load the pipeline")
		}

		encoder := yaml.NewEncoder(os.Stdout)
		encoder.SetIndent(2)
		err = encoder.Encode(cfg)
		if err != nil {
			return err
		}

		err = encoder.Close()
		if err != nil {
			return err
		}

		if len(options) > 0 {
			names := make([]string, 0, len(options))
			for name := range options {
				names = append(names, name)
			}
			sort.Strings(names)

			fmt.Println("\nOptions:")
			for _, name := range names {
				opt := options[name]
				fmt.Printf(" * %s (default %q): %s\n", name, opt.Default(), opt.Help)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
