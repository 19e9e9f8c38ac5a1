package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/abelbrown/moviefinder/internal/catalog"
)

func addSearch(root *cobra.Command, o *options) {
	var (
		page    int
		sortArg string
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search or discover movies and print one page",
		Long: `Search prints one page of results as a table.

With a query it searches titles; without one it lists movies ordered by
--sort. A successful title search is recorded in the popularity store, the
same way the interactive app does it.`,
		Example: `
moviefinder search batman
moviefinder search batman --page 2
moviefinder search --sort rated`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.cfg.Validate(); err != nil {
				return err
			}
			if sortArg == "" {
				sortArg = o.cfg.UI.Sort
			}
			sort, err := catalog.ParseSortKey(sortArg)
			if err != nil {
				return err
			}
			query := strings.TrimSpace(strings.Join(args, " "))

			ctx := cmd.Context()
			rt, err := setup(ctx, o.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			p, err := rt.catalog.Fetch(ctx, query, sort, page)
			if err != nil {
				return err
			}
			if query != "" && p.Page <= 1 && len(p.Results) > 0 && rt.tracker != nil {
				rt.tracker.RecordSearch(ctx, query, p.Results[0])
			}
			printPage(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().StringVar(&sortArg, "sort", "", "sort order when no query is given: popular, rated, newest")
	root.AddCommand(cmd)
}

func printPage(w io.Writer, p *catalog.Page) {
	if len(p.Results) == 0 {
		fmt.Fprintln(w, "No movies found.")
		return
	}

	tbl := uitable.New()
	tbl.MaxColWidth = 60
	tbl.Separator = "  "
	tbl.AddRow("ID", "TITLE", "RATING", "YEAR")
	for _, m := range p.Results {
		rating := "N/A"
		if m.VoteAverage > 0 {
			rating = fmt.Sprintf("%.1f", m.VoteAverage)
		}
		year := "N/A"
		if len(m.ReleaseDate) >= 4 {
			year = m.ReleaseDate[:4]
		}
		tbl.AddRow(m.ID, m.Title, rating, year)
	}
	fmt.Fprintln(w, tbl)
	fmt.Fprintf(w, "\npage %d of %d\n", p.Page, p.TotalPages)
}
