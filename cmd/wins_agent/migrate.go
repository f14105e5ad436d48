package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/wins-exporter/internal/db"
)

var migrateDatabaseURL string

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down|status]",
	Short:     "Apply or inspect the snapshot schema migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{db.MigrateUp, db.MigrateDown, db.MigrateStatus},
	RunE:      runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDatabaseURL, "database-url", "", "Postgres URL (defaults to DATABASE_URL)")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	database, err := connectStore(cmd, migrateDatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	return db.Migrate(cmd.Context(), database, args[0], cmd.OutOrStdout())
}

// connectStore opens the snapshot database from the flag value, falling back to the loaded config.
func connectStore(cmd *cobra.Command, flagValue string) (*db.DB, error) {
	databaseURL := flagValue
	if databaseURL == "" {
		cfg, err := loadSettings()
		if err != nil {
			return nil, err
		}
		databaseURL = cfg.DatabaseURL
	}
	if databaseURL == "" {
		return nil, fmt.Errorf("a database is required: pass --database-url or set DATABASE_URL")
	}

	database, err := db.Connect(cmd.Context(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return database, nil
}
