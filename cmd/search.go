package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type searchOptions struct {
	format string
	limit  int
	cursor string
}

var searchOpts = &searchOptions{}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search pages and databases by title",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		return runSearch(cmd.Context(), query, searchOpts)
	},
}

func init() {
	searchCmd.Flags().StringVarP(&searchOpts.format, "format", "f", "json", "Output format: json, text")
	searchCmd.Flags().IntVar(&searchOpts.limit, "limit", 0, "Maximum results per page")
	searchCmd.Flags().StringVar(&searchOpts.cursor, "cursor", "", "Pagination cursor from a previous call")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(ctx context.Context, query string, opts *searchOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	results, err := client.Search(ctx, query, pageOptions(opts.limit, opts.cursor))
	if err != nil {
		return fmt.Errorf("failed to search: %w", err)
	}
	return printer.Result(results)
}
