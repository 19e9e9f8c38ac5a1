package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/abelbrown/moviefinder/internal/popularity"
)

func addTrending(root *cobra.Command, o *options) {
	var limit int

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "List the most searched terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closer, err := openStore(o.cfg)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("popularity tracking is off (store.backend = none)")
			}
			if closer != nil {
				defer closer()
			}

			if limit == 0 {
				limit = o.cfg.UI.TrendingLimit
			}
			// Called on the store directly so failures reach the user.
			terms, err := store.TopSearches(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printTrending(cmd.OutOrStdout(), terms)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of terms (default ui.trending_limit)")
	root.AddCommand(cmd)
}

func printTrending(w io.Writer, terms []popularity.SearchTerm) {
	if len(terms) == 0 {
		fmt.Fprintln(w, "Nothing searched yet.")
		return
	}

	tbl := uitable.New()
	tbl.MaxColWidth = 60
	tbl.Separator = "  "
	tbl.AddRow("#", "TERM", "SEARCHES", "MOVIE", "POSTER")
	for i, t := range terms {
		tbl.AddRow(i+1, t.Term, humanize.Comma(int64(t.Count)), t.MovieID, t.PosterURL)
	}
	fmt.Fprintln(w, tbl)
}
