// Package main provides the entry point for the wins exporter CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "wins_agent",
	Short: "Export recent Alphabot wins as rows",
	Long: `wins_agent walks the Alphabot wins feed back to a cutoff, enriches each win from its
project page, drops wins whose mint date is past the retention horizon and emits
the result as rows (table, CSV or JSON).

Settings come from --config (JSON or YAML), then the environment, then flags.`,
	SilenceUsage: true,
}

var (
	configPath    string
	sessionToken  string
	cutoffFlag    string
	concurrency   int
	retentionDays int
	baseURL       string
	detailRPS     float64
	verbose       bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a JSON or YAML config file")
	flags.StringVar(&sessionToken, "token", "", "Alphabot session token (defaults to ALPHABOT_SESSION_TOKEN)")
	flags.StringVar(&cutoffFlag, "cutoff", "", "Oldest pick to include, YYYY-MM-DD or RFC 3339 (default 2026-01-26)")
	flags.IntVar(&concurrency, "concurrency", 0, "Concurrent detail requests, clamped to 1-12 (default 6)")
	flags.IntVar(&retentionDays, "retention-days", 0, "Drop wins minted more than this many days ago (default 7)")
	flags.StringVar(&baseURL, "base-url", "", "Alphabot site root (defaults to WINS_BASE_URL or https://www.alphabot.app)")
	flags.Float64Var(&detailRPS, "detail-rps", 0, "Detail requests per second, 0 for unlimited")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Print progress and debug logging")
}

// loadEnvFiles reads .env and then .env.local without overriding the real environment.
func loadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

func main() {
	loadEnvFiles()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
