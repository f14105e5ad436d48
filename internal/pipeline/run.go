// Package pipeline provides the high-level orchestration for producing win rows.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/wins-exporter/internal/enrich"
	"github.com/jonathan/wins-exporter/internal/export"
	"github.com/jonathan/wins-exporter/internal/feed"
	"github.com/jonathan/wins-exporter/internal/fetch"
	"github.com/jonathan/wins-exporter/internal/merge"
	"github.com/jonathan/wins-exporter/internal/retry"
	"github.com/jonathan/wins-exporter/internal/rows"
	"github.com/jonathan/wins-exporter/internal/types"
)

// DefaultCutoff is used when no cutoff is supplied.
var DefaultCutoff = time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC)

// detailPathPrefix is where project pages live under the site root.
const detailPathPrefix = "/_"

// ProgressEvent represents a progress update during pipeline execution
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs
type ProgressCallback func(event ProgressEvent)

// Sink persists exported snapshots.
type Sink interface {
	SaveSnapshot(ctx context.Context, snapshot *types.Snapshot) error
}

// Options holds configuration for one pipeline run. Zero values select defaults.
type Options struct {
	Cutoff        time.Time
	Concurrency   int              // Clamped to [1, 12]; 0 means 6
	RetentionDays int              `validate:"gte=0,lte=3650"` // 0 means 7
	BaseURL       string           `validate:"omitempty,url"`
	DetailRPS     float64          `validate:"gte=0"` // 0 disables detail rate limiting
	Timeout       time.Duration    `validate:"gte=0"`
	Logger        *zap.Logger      `validate:"-"`
	OnProgress    ProgressCallback `validate:"-"`
	Sink          Sink             `validate:"-"` // Optional; ExportRows records the snapshot here
	Now           func() time.Time `validate:"-"` // Retention clock; defaults to time.Now

	// Zero-value policies select retry.FeedPolicy and retry.DetailPolicy.
	FeedRetry   retry.Policy `validate:"-"`
	DetailRetry retry.Policy `validate:"-"`
}

var validate = validator.New()

// Validate checks option ranges.
func (o *Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid pipeline options: %w", err)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Cutoff.IsZero() {
		o.Cutoff = DefaultCutoff
	}
	if o.Concurrency == 0 {
		o.Concurrency = enrich.DefaultConcurrency
	}
	o.Concurrency = enrich.ClampConcurrency(o.Concurrency)
	if o.RetentionDays == 0 {
		o.RetentionDays = merge.DefaultRetentionDays
	}
	if o.BaseURL == "" {
		o.BaseURL = feed.DefaultBaseURL
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.FeedRetry.Tries == 0 {
		o.FeedRetry = retry.FeedPolicy
	}
	if o.DetailRetry.Tries == 0 {
		o.DetailRetry = retry.DetailPolicy
	}
	return o
}

func (o Options) emit(runID uuid.UUID, step, category, message string, content any) {
	if o.OnProgress != nil {
		o.OnProgress(ProgressEvent{
			Step:     step,
			Category: category,
			Message:  message,
			RunID:    runID.String(),
			Content:  content,
		})
	}
}

// FetchRows runs the feed walk, detail enrichment, merge, retention filter and row
// projection. An empty slice with a nil error means no records were in range.
func FetchRows(ctx context.Context, authToken string, opts Options) ([]types.OutputRow, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	out, _, err := fetchRows(ctx, authToken, opts.withDefaults(), uuid.New())
	return out, err
}

// ExportRows fetches rows and writes them to destinationPath. A nil writer is chosen
// from the path's extension. It returns the destination and the number of rows written.
func ExportRows(ctx context.Context, authToken, destinationPath string, opts Options, writer export.Writer) (string, int, error) {
	if err := opts.Validate(); err != nil {
		return "", 0, err
	}
	if writer == nil {
		w, err := export.ForPath(destinationPath)
		if err != nil {
			return "", 0, err
		}
		writer = w
	}

	runID := uuid.New()
	opts = opts.withDefaults()

	out, logger, err := fetchRows(ctx, authToken, opts, runID)
	if err != nil {
		return "", 0, err
	}

	opts.emit(runID, "export", "progress", fmt.Sprintf("Writing %d rows to %s", len(out), destinationPath), nil)
	if err := export.WriteFile(destinationPath, out, writer); err != nil {
		return "", 0, err
	}
	logger.Info("pipeline: export written",
		zap.String("path", destinationPath),
		zap.String("format", writer.Format()),
		zap.Int("rows", len(out)),
	)

	if opts.Sink != nil {
		snapshot := &types.Snapshot{
			RunID:         runID,
			Cutoff:        opts.Cutoff,
			RetentionDays: opts.RetentionDays,
			Destination:   destinationPath,
			Format:        writer.Format(),
			CreatedAt:     opts.Now().UTC(),
			Rows:          out,
		}
		if err := opts.Sink.SaveSnapshot(ctx, snapshot); err != nil {
			return "", 0, fmt.Errorf("failed to save snapshot: %w", err)
		}
		opts.emit(runID, "export", "progress", "Snapshot saved", nil)
	}

	opts.emit(runID, "export", "complete", "Export complete", map[string]any{"path": destinationPath, "count": len(out)})
	return destinationPath, len(out), nil
}

// fetchRows expects opts with defaults applied. One connection pool serves the whole run;
// detail lookups draw from it through their own rate limiter.
func fetchRows(ctx context.Context, authToken string, opts Options, runID uuid.UUID) ([]types.OutputRow, *zap.Logger, error) {
	logger := opts.Logger.With(zap.String("run_id", runID.String()))
	started := time.Now()

	feedClient := fetch.NewClient(&fetch.Options{Timeout: opts.Timeout})
	defer feedClient.Close()
	detailClient := feedClient.WithRateLimit(opts.DetailRPS, 1)

	opts.emit(runID, "feed", "progress", "Fetching feed", map[string]any{"cutoff": opts.Cutoff})
	fetcher := feed.NewFetcher(
		feed.NewHTTPSource(feedClient, opts.BaseURL),
		feed.WithPolicy(opts.FeedRetry),
		feed.WithLogger(logger),
	)
	base, err := fetcher.FetchFeed(ctx, authToken, opts.Cutoff)
	if err != nil {
		opts.emit(runID, "feed", "error", err.Error(), nil)
		return nil, logger, err
	}
	logger.Info("pipeline: feed fetched", zap.Int("records", len(base)))
	opts.emit(runID, "feed", "complete", fmt.Sprintf("Fetched %d records", len(base)), nil)

	opts.emit(runID, "enrich", "progress", fmt.Sprintf("Enriching %d records", len(base)), nil)
	enricher := enrich.New(
		enrich.NewHTTPDetailSource(detailClient, opts.BaseURL+detailPathPrefix),
		enrich.WithConcurrency(opts.Concurrency),
		enrich.WithPolicy(opts.DetailRetry),
		enrich.WithLogger(logger),
	)
	results := enricher.EnrichAllResults(ctx, base)
	// Lookups cut short by cancellation look like missing details; never filter on them.
	if err := ctx.Err(); err != nil {
		opts.emit(runID, "enrich", "error", err.Error(), nil)
		return nil, logger, err
	}
	details := enrich.Coerce(results)
	opts.emit(runID, "enrich", "complete", "Enrichment complete", map[string]any{"failed": countFailed(results)})

	kept := merge.MergeAndFilter(base, details, opts.RetentionDays, opts.Now())
	out := rows.ToRows(kept)

	logger.Info("pipeline: rows ready",
		zap.Int("fetched", len(base)),
		zap.Int("rows", len(out)),
		zap.Int("dropped", len(base)-len(kept)),
		zap.Duration("elapsed", time.Since(started)),
	)
	opts.emit(runID, "rows", "complete", fmt.Sprintf("Produced %d rows", len(out)), nil)
	return out, logger, nil
}

func countFailed(results []enrich.Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
