package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leadspider/spider/internal/index"
)

// newSearchCmd creates and configures the 'search' subcommand.
func newSearchCmd() *cobra.Command {
	var (
		indexPath string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "search [terms...]",
		Short: "Query a saved index from the command line",
		Long: `Search loads the inverted index written by a previous crawl and ranks
pages by how many of the query terms they contain.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}

			path := indexPath
			if path == "" {
				path = filepath.Join(rt.cfg.Export.OutputDir, "index.json")
			}
			ix, err := loadIndex(path)
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			results := ix.SearchScored(query)
			if len(results) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no results for %q\n", query)
				return nil
			}
			if limit > 0 && len(results) > limit {
				results = results[:limit]
			}
			for i, res := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s (score %d)\n", i+1, res.URL, res.Score)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "index file to query (default <output-dir>/index.json)")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results to print, 0 for all")

	return cmd
}

func loadIndex(path string) (*index.Index, error) {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator flags
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	ix, err := index.Load(f)
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", path, err)
	}
	return ix, nil
}
