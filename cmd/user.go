package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type userOptions struct {
	format string
	limit  int
	cursor string
}

var userOpts = &userOptions{}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Work with workspace users",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspace members",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUserList(cmd.Context(), userOpts)
	},
}

var userMeCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the authenticated user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUserMe(cmd.Context(), userOpts)
	},
}

func init() {
	userCmd.PersistentFlags().StringVarP(&userOpts.format, "format", "f", "json", "Output format: json, text")

	userListCmd.Flags().IntVar(&userOpts.limit, "limit", 0, "Maximum results per page")
	userListCmd.Flags().StringVar(&userOpts.cursor, "cursor", "", "Pagination cursor from a previous call")

	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userMeCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserList(ctx context.Context, opts *userOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	users, err := client.ListUsers(ctx, pageOptions(opts.limit, opts.cursor))
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	return printer.Result(users)
}

func runUserMe(ctx context.Context, opts *userOptions) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	printer, err := newPrinter(opts.format)
	if err != nil {
		return err
	}

	me, err := client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return printer.Result(me)
}
