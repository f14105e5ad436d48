package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/wins-exporter/internal/config"
	"github.com/jonathan/wins-exporter/internal/observability"
	"github.com/jonathan/wins-exporter/internal/pipeline"
)

// loadSettings layers flags over the environment over the config file. Flags left at their
// zero value fall through to the layers below.
func loadSettings() (*config.Config, error) {
	loaded, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	fromFlags := config.Config{
		SessionToken:  sessionToken,
		Cutoff:        cutoffFlag,
		Concurrency:   concurrency,
		RetentionDays: retentionDays,
		BaseURL:       baseURL,
		DetailRPS:     detailRPS,
		Verbose:       verbose || loaded.Verbose,
	}
	cfg := fromFlags.MergeWithDefaults(*loaded)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// runSetup resolves settings, the logger and pipeline options for a command that runs the pipeline.
func runSetup(cmd *cobra.Command) (*config.Config, *zap.Logger, pipeline.Options, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, nil, pipeline.Options{}, err
	}

	logger, err := observability.NewLogger(cfg.Verbose)
	if err != nil {
		return nil, nil, pipeline.Options{}, err
	}

	opts, err := cfg.PipelineOptions()
	if err != nil {
		return nil, nil, pipeline.Options{}, err
	}
	opts.Logger = logger
	if cfg.Verbose {
		printer := observability.NewPrinter(cmd.ErrOrStderr())
		opts.OnProgress = printer.PrintProgress
	}
	return cfg, logger, opts, nil
}

func requireSessionToken(cfg *config.Config) error {
	if cfg.SessionToken == "" {
		return fmt.Errorf("a session token is required: pass --token or set ALPHABOT_SESSION_TOKEN")
	}
	return nil
}
