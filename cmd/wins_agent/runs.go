package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/wins-exporter/internal/observability"
)

var (
	runsLimit       int
	runsDatabaseURL string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored export snapshots, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	runsCmd.Flags().StringVar(&runsDatabaseURL, "database-url", "", "Postgres URL (defaults to DATABASE_URL)")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, _ []string) error {
	database, err := connectStore(cmd, runsDatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintRuns(runs)
	return nil
}
