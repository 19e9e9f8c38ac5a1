package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abelbrown/moviefinder/internal/install"
)

func addInstall(root *cobra.Command, o *options) {
	root.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Add MovieFinder to the desktop application menu",
		RunE: func(cmd *cobra.Command, args []string) error {
			l := install.NewLauncher()
			if l == nil {
				return errors.New("no applications directory on this system")
			}
			if !l.Available() {
				fmt.Fprintf(cmd.OutOrStdout(), "Already installed at %s\n", l.Path())
				return nil
			}
			outcome, err := l.Prompt(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", outcome, l.Path())
			return nil
		},
	})
}
