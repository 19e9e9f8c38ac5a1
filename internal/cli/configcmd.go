package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abelbrown/moviefinder/internal/config"
)

func addConfig(root *cobra.Command, o *options) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the config file",
	}

	var (
		force bool
		path  string
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to a TOML config file",
		Long: `Init writes the effective settings to a config file.

The catalog token and the store API key are never written; keep them in
MOVIEFINDER_CATALOG_TOKEN and MOVIEFINDER_STORE_API_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = config.DefaultFilePath()
			}
			if err := config.WriteFile(o.cfg, path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	initCmd.Flags().StringVar(&path, "path", "", "where to write (default ~/.moviefinder/moviefinder.toml)")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		Run: func(cmd *cobra.Command, args []string) {
			used := o.v.ConfigFileUsed()
			if used == "" {
				used = "(none, using defaults and environment)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), used)
		},
	}

	cmd.AddCommand(initCmd, pathCmd)
	root.AddCommand(cmd)
}
