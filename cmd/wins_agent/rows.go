package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/wins-exporter/internal/export"
	"github.com/jonathan/wins-exporter/internal/observability"
	"github.com/jonathan/wins-exporter/internal/pipeline"
)

var rowsJSON bool

var rowsCmd = &cobra.Command{
	Use:   "rows",
	Short: "Fetch wins and print them as rows",
	Long:  `Runs the full pipeline and prints the rows as a summary table, or as the JSON export document with --json.`,
	Args:  cobra.NoArgs,
	RunE:  runRows,
}

func init() {
	rowsCmd.Flags().BoolVar(&rowsJSON, "json", false, "Print the JSON export document instead of a table")
	rootCmd.AddCommand(rowsCmd)
}

func runRows(cmd *cobra.Command, _ []string) error {
	cfg, logger, opts, err := runSetup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := requireSessionToken(cfg); err != nil {
		return err
	}

	rows, err := pipeline.FetchRows(cmd.Context(), cfg.SessionToken, opts)
	if err != nil {
		return err
	}

	if rowsJSON {
		return export.JSONWriter{}.Write(cmd.OutOrStdout(), rows)
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintRows(rows)
	return nil
}
