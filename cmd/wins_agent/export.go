package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/wins-exporter/internal/db"
	"github.com/jonathan/wins-exporter/internal/export"
	"github.com/jonathan/wins-exporter/internal/observability"
	"github.com/jonathan/wins-exporter/internal/pipeline"
)

var (
	exportOut         string
	exportFormat      string
	exportDatabaseURL string
	exportNoSnapshot  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch wins and write them to a CSV or JSON file",
	Long: `Runs the full pipeline and writes the rows to --out. The format follows the file
extension unless --format is given. When a database is configured the run is also
stored as a snapshot that can be listed with "runs".`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Destination file (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "csv or json (default: from the file extension)")
	exportCmd.Flags().StringVar(&exportDatabaseURL, "database-url", "", "Postgres URL for snapshots (defaults to DATABASE_URL)")
	exportCmd.Flags().BoolVar(&exportNoSnapshot, "no-snapshot", false, "Skip storing the run even when a database is configured")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, logger, opts, err := runSetup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := requireSessionToken(cfg); err != nil {
		return err
	}

	var writer export.Writer
	if exportFormat != "" {
		writer, err = export.ForFormat(exportFormat)
		if err != nil {
			return err
		}
	}

	databaseURL := exportDatabaseURL
	if databaseURL == "" {
		databaseURL = cfg.DatabaseURL
	}
	if databaseURL != "" && !exportNoSnapshot {
		database, err := db.Connect(cmd.Context(), databaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer database.Close()
		opts.Sink = database
	}

	path, count, err := pipeline.ExportRows(cmd.Context(), cfg.SessionToken, exportOut, opts, writer)
	if err != nil {
		return err
	}

	observability.NewPrinter(cmd.OutOrStdout()).PrintExport(path, count, opts.Sink != nil)
	return nil
}
