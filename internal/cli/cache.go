package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addCache(root *cobra.Command, o *options) {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the offline response cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "install",
		Short: "Fetch and store the first page of every sort order",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.cfg.Validate(); err != nil {
				return err
			}
			rt, err := setup(cmd.Context(), o.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.precache(cmd.Context(), true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Offline cache installed in %s\n", o.cfg.Offline.Dir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached response",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), o.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.cache == nil {
				return fmt.Errorf("offline cache is disabled (offline.enabled = false)")
			}
			if err := rt.cache.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Offline cache cleared")
			return nil
		},
	})

	root.AddCommand(cmd)
}
