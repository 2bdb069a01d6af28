package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kairyu/notionctl/internal/config"
	"github.com/kairyu/notionctl/internal/notion"
	"github.com/kairyu/notionctl/internal/output"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "notionctl",
	Short: "A CLI tool for Notion",
	Long: `notionctl is a command-line interface for Notion, speaking either the
official integration API or a browser session depending on how you
authenticated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// logger builds the CLI logger. Quiet unless --verbose.
func logger() zerolog.Logger {
	level := zerolog.Disabled
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// newClient loads config and builds the client for the active backend.
func newClient() (notion.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return notion.NewClient(cfg, logger())
}

// newPrinter validates the format flag and builds a stdout printer.
func newPrinter(format string) (*output.Printer, error) {
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(f, os.Stdout), nil
}

// pageOptions builds pagination options from the shared flags.
func pageOptions(limit int, cursor string) *notion.PageOptions {
	if limit == 0 && cursor == "" {
		return nil
	}
	return &notion.PageOptions{Limit: limit, Cursor: cursor}
}
