package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kairyu/notionctl/internal/notion"
	"github.com/kairyu/notionctl/internal/notion/collect"
	"github.com/kairyu/notionctl/internal/notion/markdown"
	"github.com/kairyu/notionctl/internal/notion/types"
)

type pageOptionsFlags struct {
	format     string
	limit      int
	parent     string
	title      string
	properties string
	depth      int
}

var pageOpts = &pageOptionsFlags{}

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Work with pages",
}

var pageGetCmd = &cobra.Command{
	Use:   "get <page_id>",
	Short: "Get a page with flattened properties",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPageGet(cmd.Context(), args[0], pageOpts)
	},
}

var pageCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a page under a page or database",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPageCreate(cmd.Context(), pageOpts)
	},
}

var pageUpdateCmd = &cobra.Command{
	Use:   "update <page_id>",
	Short: "Update page properties",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPageUpdate(cmd.Context(), args[0], pageOpts)
	},
}

var pageArchiveCmd = &cobra.Command{
	Use:   "archive <page_id>",
	Short: "Move a page to the trash",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPageArchive(cmd.Context(), args[0])
	},
}

var pageContentCmd = &cobra.Command{
	Use:   "content <page_id>",
	Short: "Render a page's content tree as markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPageContent(cmd.Context(), args[0], pageOpts)
	},
}

var pageAppendCmd = &cobra.Command{
	Use:   "append <page_id> [markdown]",
	Short: "Append markdown content to a page",
	Long: `Append markdown content to a page. The markdown argument is parsed
into blocks; when omitted, markdown is read from stdin.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		md := ""
		if len(args) == 2 {
			md = args[1]
		}
		return runPageAppend(cmd.Context(), args[0], md)
	},
}

var pageHistoryCmd = &cobra.Command{
	Use:   "history <page_id>",
	Short: "List version snapshots of a page (session backend only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPageHistory(cmd.Context(), args[0], pageOpts)
	},
}

var pageBacklinksCmd = &cobra.Command{
	Use:   "backlinks <page_id>",
	Short: "List blocks linking to a page (session backend only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPageBacklinks(cmd.Context(), args[0], pageOpts)
	},
}

var pageActivityCmd = &cobra.Command{
	Use:   "activity <page_id>",
	Short: "Show the edit activity feed of a page (session backend only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPageActivity(cmd.Context(), args[0], pageOpts)
	},
}

func init() {
	pageCmd.PersistentFlags().StringVarP(&pageOpts.format, "format", "f", "json", "Output format: json, text")

	pageCreateCmd.Flags().StringVar(&pageOpts.parent, "parent", "", "Parent page or database id (required)")
	pageCreateCmd.Flags().StringVar(&pageOpts.title, "title", "", "Page title")
	pageCreateCmd.Flags().StringVar(&pageOpts.properties, "properties", "", "Extra properties as a JSON object")
	_ = pageCreateCmd.MarkFlagRequired("parent")

	pageUpdateCmd.Flags().StringVar(&pageOpts.properties, "properties", "", "Properties to set as a JSON object (required)")
	_ = pageUpdateCmd.MarkFlagRequired("properties")

	pageContentCmd.Flags().IntVar(&pageOpts.depth, "depth", 3, "Maximum nesting depth to descend")

	pageHistoryCmd.Flags().IntVar(&pageOpts.limit, "limit", 20, "Maximum snapshots to list")
	pageActivityCmd.Flags().IntVar(&pageOpts.limit, "limit", 20, "Maximum events to list")

	pageCmd.AddCommand(pageGetCmd)
	pageCmd.AddCommand(pageCreateCmd)
	pageCmd.AddCommand(pageUpdateCmd)
	pageCmd.AddCommand(pageArchiveCmd)
	pageCmd.AddCommand(pageContentCmd)
	pageCmd.AddCommand(pageAppendCmd)
	pageCmd.AddCommand(pageHistoryCmd)
	pageCmd.AddCommand(pageBacklinksCmd)
	pageCmd.AddCommand(pageActivityCmd)
	rootCmd.AddCommand(pageCmd)
}

func runPageGet(ctx context.Context, idOrURL string, opts *pageOptionsFlags) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	page, err := client.GetPage(ctx, notion.ExtractID(idOrURL))
	if err != nil {
		return fmt.Errorf("failed to get page: %w", err)
	}
	return printer.Result(page)
}

func parseProperties(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var props map[string]any
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, fmt.Errorf("%w: properties must be a JSON object: %v", types.ErrInvalidInput, err)
	}
	return props, nil
}

func runPageCreate(ctx context.Context, opts *pageOptionsFlags) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	props, err := parseProperties(opts.properties)
	if err != nil {
		return err
	}

	page, err := client.CreatePage(ctx, notion.CreatePageParams{
		ParentID:   notion.ExtractID(opts.parent),
		Title:      opts.title,
		Properties: props,
	})
	if err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	return printer.Result(page)
}

func runPageUpdate(ctx context.Context, idOrURL string, opts *pageOptionsFlags) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	props, err := parseProperties(opts.properties)
	if err != nil {
		return err
	}
	if len(props) == 0 {
		return fmt.Errorf("%w: no properties to update", types.ErrInvalidInput)
	}

	page, err := client.UpdatePage(ctx, notion.ExtractID(idOrURL), props)
	if err != nil {
		return fmt.Errorf("failed to update page: %w", err)
	}
	return printer.Result(page)
}

func runPageArchive(ctx context.Context, idOrURL string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	id := notion.ExtractID(idOrURL)
	if err := client.ArchivePage(ctx, id); err != nil {
		return fmt.Errorf("failed to archive page: %w", err)
	}
	fmt.Printf("Archived %s\n", id)
	return nil
}

// collectContent walks the content tree breadth-first up to maxDepth
// levels below the page, stopping early once the block cap is reached.
// Truncation at any level marks the whole render truncated.
func collectContent(ctx context.Context, client notion.Client, pageID string, maxDepth int) ([]types.NormalizedBlock, map[string][]types.NormalizedBlock, bool, error) {
	top, err := client.GetAllBlocks(ctx, pageID)
	if err != nil {
		return nil, nil, false, err
	}

	childMap := make(map[string][]types.NormalizedBlock)
	truncated := top.Truncated
	total := len(top.Blocks)

	frontier := childIDs(top.Blocks)
	for depth := 1; depth < maxDepth && len(frontier) > 0 && total < collect.MaxBlocks; depth++ {
		children, err := client.GetChildBlocks(ctx, frontier)
		if err != nil {
			return nil, nil, false, err
		}

		var next []string
		for _, id := range frontier {
			coll, ok := children[id]
			if !ok {
				continue
			}
			childMap[id] = coll.Blocks
			truncated = truncated || coll.Truncated
			total += len(coll.Blocks)
			next = append(next, childIDs(coll.Blocks)...)
		}
		frontier = next
	}
	if len(frontier) > 0 {
		truncated = true
	}

	return top.Blocks, childMap, truncated, nil
}

func childIDs(blocks []types.NormalizedBlock) []string {
	var ids []string
	for _, b := range blocks {
		if b.HasChildren {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

func runPageContent(ctx context.Context, idOrURL string, opts *pageOptionsFlags) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	blocks, childMap, truncated, err := collectContent(ctx, client, notion.ExtractID(idOrURL), opts.depth)
	if err != nil {
		return fmt.Errorf("failed to get page content: %w", err)
	}

	count := len(blocks)
	for _, children := range childMap {
		count += len(children)
	}

	return printer.Result(types.PageContent{
		Content:          markdown.FromBlocks(blocks, childMap, ""),
		BlockCount:       count,
		ContentTruncated: truncated,
	})
}

func runPageAppend(ctx context.Context, idOrURL, md string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	if md == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		md = string(data)
	}

	blocks := markdown.ToBlocks(md)
	if len(blocks) == 0 {
		return fmt.Errorf("%w: no content to append", types.ErrInvalidInput)
	}

	id := notion.ExtractID(idOrURL)
	if err := client.AppendBlocks(ctx, id, blocks); err != nil {
		return fmt.Errorf("failed to append blocks: %w", err)
	}
	fmt.Printf("Appended %d block(s) to %s\n", len(blocks), id)
	return nil
}

// historyClient asserts the session-backend extension interface.
func historyClient(client notion.Client, op string) (notion.HistoryClient, error) {
	hc, ok := client.(notion.HistoryClient)
	if !ok {
		return nil, types.NotSupportedf(op, "official")
	}
	return hc, nil
}

func runPageHistory(ctx context.Context, idOrURL string, opts *pageOptionsFlags) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	hc, err := historyClient(client, "page history")
	if err != nil {
		return err
	}

	entries, err := hc.PageHistory(ctx, notion.ExtractID(idOrURL), opts.limit)
	if err != nil {
		return fmt.Errorf("failed to get page history: %w", err)
	}
	return printer.Result(entries)
}

func runPageBacklinks(ctx context.Context, idOrURL string, opts *pageOptionsFlags) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	hc, err := historyClient(client, "backlinks")
	if err != nil {
		return err
	}

	links, err := hc.Backlinks(ctx, notion.ExtractID(idOrURL))
	if err != nil {
		return fmt.Errorf("failed to get backlinks: %w", err)
	}
	return printer.Result(links)
}

func runPageActivity(ctx context.Context, idOrURL string, opts *pageOptionsFlags) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	hc, err := historyClient(client, "activity log")
	if err != nil {
		return err
	}

	entries, err := hc.ActivityLog(ctx, notion.ExtractID(idOrURL), opts.limit)
	if err != nil {
		return fmt.Errorf("failed to get activity log: %w", err)
	}
	return printer.Result(entries)
}
