package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kairyu/notionctl/internal/notion"
)

type commentOptions struct {
	format     string
	limit      int
	cursor     string
	text       string
	anchor     string
	occurrence int
}

var commentOpts = &commentOptions{}

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Work with comments",
}

var commentListCmd = &cobra.Command{
	Use:   "list <block_id>",
	Short: "List comments on a page or block",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommentList(cmd.Context(), args[0], commentOpts)
	},
}

var commentAddCmd = &cobra.Command{
	Use:   "add <page_id>",
	Short: "Add a page-level comment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommentAdd(cmd.Context(), args[0], commentOpts)
	},
}

var commentAddInlineCmd = &cobra.Command{
	Use:   "add-inline <block_id>",
	Short: "Anchor a comment to text inside a block (session backend only)",
	Long: `Anchor a comment to text inside a block. The --anchor text is located
in the block's content; when it appears more than once, --occurrence
selects which match to annotate (1-based).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommentAddInline(cmd.Context(), args[0], commentOpts)
	},
}

func init() {
	commentCmd.PersistentFlags().StringVarP(&commentOpts.format, "format", "f", "json", "Output format: json, text")

	commentListCmd.Flags().IntVar(&commentOpts.limit, "limit", 0, "Maximum results per page")
	commentListCmd.Flags().StringVar(&commentOpts.cursor, "cursor", "", "Pagination cursor from a previous call")

	commentAddCmd.Flags().StringVar(&commentOpts.text, "text", "", "Comment text (required)")
	_ = commentAddCmd.MarkFlagRequired("text")

	commentAddInlineCmd.Flags().StringVar(&commentOpts.text, "text", "", "Comment text (required)")
	commentAddInlineCmd.Flags().StringVar(&commentOpts.anchor, "anchor", "", "Text inside the block to anchor to (required)")
	commentAddInlineCmd.Flags().IntVar(&commentOpts.occurrence, "occurrence", 1, "Which occurrence of the anchor to annotate")
	_ = commentAddInlineCmd.MarkFlagRequired("text")
	_ = commentAddInlineCmd.MarkFlagRequired("anchor")

	commentCmd.AddCommand(commentListCmd)
	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentAddInlineCmd)
	rootCmd.AddCommand(commentCmd)
}

func runCommentList(ctx context.Context, idOrURL string, opts *commentOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	comments, err := client.ListComments(ctx, notion.ExtractID(idOrURL), pageOptions(opts.limit, opts.cursor))
	if err != nil {
		return fmt.Errorf("failed to list comments: %w", err)
	}
	return printer.Result(comments)
}

func runCommentAdd(ctx context.Context, idOrURL string, opts *commentOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	comment, err := client.AddComment(ctx, notion.ExtractID(idOrURL), opts.text)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return printer.Result(comment)
}

func runCommentAddInline(ctx context.Context, idOrURL string, opts *commentOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	comment, err := client.AddInlineComment(ctx, notion.InlineCommentParams{
		BlockID:    notion.ExtractID(idOrURL),
		Anchor:     opts.anchor,
		Occurrence: opts.occurrence,
		Text:       opts.text,
	})
	if err != nil {
		return fmt.Errorf("failed to add inline comment: %w", err)
	}
	return printer.Result(comment)
}
