package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kairyu/notionctl/internal/notion"
	"github.com/kairyu/notionctl/internal/notion/types"
)

type databaseOptions struct {
	format string
	limit  int
	cursor string
	filter string
}

var databaseOpts = &databaseOptions{}

var databaseCmd = &cobra.Command{
	Use:     "database",
	Aliases: []string{"db"},
	Short:   "Work with databases",
}

var databaseListCmd = &cobra.Command{
	Use:   "list",
	Short: "List databases visible to the integration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDatabaseList(cmd.Context(), databaseOpts)
	},
}

var databaseGetCmd = &cobra.Command{
	Use:   "get <database_id>",
	Short: "Get a database summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDatabaseGet(cmd.Context(), args[0], databaseOpts)
	},
}

var databaseSchemaCmd = &cobra.Command{
	Use:   "schema <database_id>",
	Short: "Show the flattened column definitions of a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDatabaseSchema(cmd.Context(), args[0], databaseOpts)
	},
}

var databaseQueryCmd = &cobra.Command{
	Use:   "query <database_id>",
	Short: "Query database rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDatabaseQuery(cmd.Context(), args[0], databaseOpts)
	},
}

func init() {
	databaseCmd.PersistentFlags().StringVarP(&databaseOpts.format, "format", "f", "json", "Output format: json, text")

	databaseListCmd.Flags().IntVar(&databaseOpts.limit, "limit", 0, "Maximum results per page")
	databaseListCmd.Flags().StringVar(&databaseOpts.cursor, "cursor", "", "Pagination cursor from a previous call")

	databaseQueryCmd.Flags().StringVar(&databaseOpts.filter, "filter", "", "Filter as a JSON object")
	databaseQueryCmd.Flags().IntVar(&databaseOpts.limit, "limit", 0, "Maximum results per page")
	databaseQueryCmd.Flags().StringVar(&databaseOpts.cursor, "cursor", "", "Pagination cursor from a previous call")

	databaseCmd.AddCommand(databaseListCmd)
	databaseCmd.AddCommand(databaseGetCmd)
	databaseCmd.AddCommand(databaseSchemaCmd)
	databaseCmd.AddCommand(databaseQueryCmd)
	rootCmd.AddCommand(databaseCmd)
}

func runDatabaseList(ctx context.Context, opts *databaseOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	dbs, err := client.ListDatabases(ctx, pageOptions(opts.limit, opts.cursor))
	if err != nil {
		return fmt.Errorf("failed to list databases: %w", err)
	}
	return printer.Result(dbs)
}

func runDatabaseGet(ctx context.Context, idOrURL string, opts *databaseOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	db, err := client.GetDatabase(ctx, notion.ExtractID(idOrURL))
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}
	return printer.Result(db)
}

func runDatabaseSchema(ctx context.Context, idOrURL string, opts *databaseOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	schema, err := client.GetDatabaseSchema(ctx, notion.ExtractID(idOrURL))
	if err != nil {
		return fmt.Errorf("failed to get database schema: %w", err)
	}
	return printer.Result(schema)
}

func runDatabaseQuery(ctx context.Context, idOrURL string, opts *databaseOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	var filter map[string]any
	if opts.filter != "" {
		if err := json.Unmarshal([]byte(opts.filter), &filter); err != nil {
			return fmt.Errorf("%w: filter must be a JSON object: %v", types.ErrInvalidInput, err)
		}
	}

	rows, err := client.QueryDatabase(ctx, notion.ExtractID(idOrURL), filter, pageOptions(opts.limit, opts.cursor))
	if err != nil {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return printer.Result(rows)
}
