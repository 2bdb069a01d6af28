package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kairyu/notionctl/internal/notion"
	"github.com/kairyu/notionctl/internal/notion/types"
)

// listedCollection is a collected child list in the raw-listing shape.
type listedCollection struct {
	Blocks    []types.BlockListing `json:"blocks"`
	Truncated bool                 `json:"truncated,omitempty"`
}

func listings(blocks []types.NormalizedBlock) []types.BlockListing {
	out := make([]types.BlockListing, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, b.Listing())
	}
	return out
}

func listCollection(coll *types.BlockCollection) listedCollection {
	return listedCollection{Blocks: listings(coll.Blocks), Truncated: coll.Truncated}
}

type blockOptions struct {
	format string
	limit  int
	cursor string
	all    bool
}

var blockOpts = &blockOptions{}

var blockCmd = &cobra.Command{
	Use:   "block",
	Short: "Work with content blocks",
}

var blockListCmd = &cobra.Command{
	Use:   "list <block_id>",
	Short: "List the direct children of a block or page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBlockList(cmd.Context(), args[0], blockOpts)
	},
}

var blockChildrenCmd = &cobra.Command{
	Use:   "get-children <block_id> [block_id...]",
	Short: "Collect the full child lists of one or more blocks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBlockChildren(cmd.Context(), args, blockOpts)
	},
}

func init() {
	blockCmd.PersistentFlags().StringVarP(&blockOpts.format, "format", "f", "json", "Output format: json, text")

	blockListCmd.Flags().IntVar(&blockOpts.limit, "limit", 0, "Maximum results per page")
	blockListCmd.Flags().StringVar(&blockOpts.cursor, "cursor", "", "Pagination cursor from a previous call")
	blockListCmd.Flags().BoolVar(&blockOpts.all, "all", false, "Collect every child instead of one page")

	blockCmd.AddCommand(blockListCmd)
	blockCmd.AddCommand(blockChildrenCmd)
	rootCmd.AddCommand(blockCmd)
}

func runBlockList(ctx context.Context, idOrURL string, opts *blockOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	id := notion.ExtractID(idOrURL)
	if opts.all {
		coll, err := client.GetAllBlocks(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to collect blocks: %w", err)
		}
		return printer.Result(listCollection(coll))
	}

	page, err := client.ListBlocks(ctx, id, pageOptions(opts.limit, opts.cursor))
	if err != nil {
		return fmt.Errorf("failed to list blocks: %w", err)
	}
	return printer.Result(types.Paginated[types.BlockListing]{
		Items:      listings(page.Items),
		HasMore:    page.HasMore,
		NextCursor: page.NextCursor,
	})
}

func runBlockChildren(ctx context.Context, idsOrURLs []string, opts *blockOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(idsOrURLs))
	for _, raw := range idsOrURLs {
		ids = append(ids, notion.ExtractID(raw))
	}

	children, err := client.GetChildBlocks(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to collect child blocks: %w", err)
	}
	listed := make(map[string]listedCollection, len(children))
	for id, coll := range children {
		listed[id] = listCollection(coll)
	}
	return printer.Result(listed)
}
