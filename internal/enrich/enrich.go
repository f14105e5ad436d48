package enrich

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/wins-exporter/internal/jsontree"
	"github.com/jonathan/wins-exporter/internal/retry"
	"github.com/jonathan/wins-exporter/internal/types"
)

// Concurrency limits for detail lookups.
const (
	DefaultConcurrency = 6
	MinConcurrency     = 1
	MaxConcurrency     = 12
)

// ClampConcurrency bounds a caller-supplied ceiling to [MinConcurrency, MaxConcurrency].
func ClampConcurrency(n int) int {
	return max(MinConcurrency, min(n, MaxConcurrency))
}

// Result is the outcome of one lookup. Err is nil on success; Detail is empty whenever Err is set.
type Result struct {
	Detail types.DetailResult
	Err    *EnrichError
}

// Coerce maps every result to its detail, turning each failure into an all-absent detail.
func Coerce(results []Result) []types.DetailResult {
	details := make([]types.DetailResult, len(results))
	for i, r := range results {
		if r.Err != nil {
			continue
		}
		details[i] = r.Detail
	}
	return details
}

// Enricher runs detail lookups behind an admission gate.
type Enricher struct {
	source      DetailSource
	concurrency int
	policy      retry.Policy
	nodeBudget  int
	logger      *zap.Logger
}

// Option customizes an Enricher.
type Option func(*Enricher)

// WithConcurrency sets the lookup ceiling; the value is clamped.
func WithConcurrency(n int) Option {
	return func(e *Enricher) { e.concurrency = ClampConcurrency(n) }
}

// WithPolicy overrides the per-lookup retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(e *Enricher) { e.policy = p }
}

// WithNodeBudget overrides the document search budget.
func WithNodeBudget(n int) Option {
	return func(e *Enricher) { e.nodeBudget = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Enricher) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Enricher reading from source.
func New(source DetailSource, opts ...Option) *Enricher {
	e := &Enricher{
		source:      source,
		concurrency: DefaultConcurrency,
		policy:      retry.DetailPolicy,
		nodeBudget:  jsontree.DefaultNodeBudget,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Concurrency returns the effective lookup ceiling.
func (e *Enricher) Concurrency() int {
	return e.concurrency
}

// EnrichAll returns one detail per record, index-aligned with records.
// Failed lookups yield an all-absent detail; the batch itself never fails.
func (e *Enricher) EnrichAll(ctx context.Context, records []types.BaseRecord) []types.DetailResult {
	return Coerce(e.EnrichAllResults(ctx, records))
}

// EnrichAllResults is EnrichAll without coercion, so callers can inspect failures.
func (e *Enricher) EnrichAllResults(ctx context.Context, records []types.BaseRecord) []Result {
	results := make([]Result, len(records))
	gate := semaphore.NewWeighted(int64(e.concurrency))

	var g errgroup.Group
	for i, record := range records {
		if record.Identity == "" {
			continue
		}
		g.Go(func() error {
			results[i] = e.lookupGated(ctx, gate, record.Identity)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			e.logger.Debug("enrich: lookup failed", zap.Error(r.Err))
		}
	}
	e.logger.Info("enrich: batch complete",
		zap.Int("records", len(records)),
		zap.Int("failed", failed),
		zap.Int("concurrency", e.concurrency),
	)

	return results
}

// lookupGated waits for an admission slot, then resolves one identity.
// A panic inside the lookup is confined to its own slot.
func (e *Enricher) lookupGated(ctx context.Context, gate *semaphore.Weighted, identity string) (result Result) {
	if err := gate.Acquire(ctx, 1); err != nil {
		return Result{Err: &EnrichError{Identity: identity, Kind: KindCanceled, Message: "admission cancelled", Cause: err}}
	}
	defer gate.Release(1)

	defer func() {
		if r := recover(); r != nil {
			result = Result{Err: &EnrichError{Identity: identity, Kind: KindPanic, Message: fmt.Sprint(r)}}
		}
	}()

	return e.lookup(ctx, identity)
}

func (e *Enricher) lookup(ctx context.Context, identity string) Result {
	root, err := retry.Do(ctx, e.policy, func(ctx context.Context) (*jsontree.Value, error) {
		root, err := e.source.FetchDetail(ctx, identity)
		var enrichErr *EnrichError
		if errors.As(err, &enrichErr) && enrichErr.Kind != KindFetch {
			return nil, retry.Permanent(err)
		}
		return root, err
	})
	if err != nil {
		var enrichErr *EnrichError
		if errors.As(err, &enrichErr) {
			return Result{Err: enrichErr}
		}
		if ctx.Err() != nil {
			return Result{Err: &EnrichError{Identity: identity, Kind: KindCanceled, Message: "lookup cancelled", Cause: err}}
		}
		return Result{Err: &EnrichError{Identity: identity, Kind: KindFetch, Message: "lookup failed", Cause: err}}
	}
	if root == nil {
		return Result{}
	}

	return Result{Detail: ParseDetail(root, e.nodeBudget)}
}
