package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-rollup/internal/config"
	"github.com/ginjaninja78/sales-rollup/pkg/utils"
)

var forceInit bool

// initConfigCmd writes the built-in defaults so they can be edited.
var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write the default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if len(args) == 1 {
			path = args[0]
		}
		return writeDefaultConfig(cmd.OutOrStdout(), path, forceInit)
	},
}

func writeDefaultConfig(out io.Writer, path string, force bool) error {
	if utils.FileExists(path) && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintln(out, "Wrote", path)
	return nil
}

func init() {
	rootCmd.AddCommand(initConfigCmd)
	initConfigCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file")
}
