package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/wins-exporter/internal/server"
)

var (
	servePort        int
	serveDatabaseURL string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts an HTTP server exposing the wins pipeline.

Endpoints:
  GET    /health             - Health check
  POST   /wins/rows          - Run the pipeline and return rows as JSON
  POST   /wins/export        - Run the pipeline and return a CSV or JSON attachment
  POST   /wins/stream        - Run the pipeline with SSE progress events
  GET    /runs               - List stored snapshots
  GET    /runs/{id}          - Show one stored snapshot
  GET    /runs/{id}/rows     - Rows of a stored snapshot
  DELETE /runs/{id}          - Delete a stored snapshot

All endpoints except /health require a bearer token from "wins_agent token".`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8080, "Port to listen on (defaults to PORT when set)")
	serveCmd.Flags().StringVar(&serveDatabaseURL, "database-url", "", "Postgres URL for snapshots (defaults to DATABASE_URL)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, opts, err := runSetup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	opts.OnProgress = nil

	port := servePort
	if !cmd.Flags().Changed("port") && cfg.Port != 0 {
		port = cfg.Port
	}
	databaseURL := serveDatabaseURL
	if databaseURL == "" {
		databaseURL = cfg.DatabaseURL
	}

	srv, err := server.New(server.Config{
		Port:         port,
		DatabaseURL:  databaseURL,
		SessionToken: cfg.SessionToken,
		Pipeline:     opts,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	logger.Info("starting server", zap.Int("port", port), zap.Bool("snapshots", databaseURL != ""))
	return srv.Start()
}
