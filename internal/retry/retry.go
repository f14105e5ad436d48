// Package retry provides bounded retries with exponential backoff for fallible operations.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

// Policy configures how an operation is retried.
type Policy struct {
	Tries     int           // Total attempts, at least 1
	BaseDelay time.Duration // Delay before the second attempt; doubles each time. 0 retries immediately
}

// FeedPolicy is used for feed page requests.
var FeedPolicy = Policy{Tries: 4, BaseDelay: 700 * time.Millisecond}

// DetailPolicy is used for per-item detail requests.
var DetailPolicy = Policy{Tries: 3, BaseDelay: 600 * time.Millisecond}

// WithoutDelay keeps the attempt count but retries immediately.
func (p Policy) WithoutDelay() Policy {
	p.BaseDelay = 0
	return p
}

// Backoff returns a fresh schedule for one Do call: BaseDelay doubling, Tries-1 waits.
func (p Policy) Backoff() goretry.Backoff {
	var b goretry.Backoff = goretry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	if p.BaseDelay > 0 {
		b = goretry.NewExponential(p.BaseDelay)
	}
	return goretry.WithMaxRetries(uint64(max(p.Tries, 1)-1), b)
}

// permanentError marks an error that must not be retried.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string {
	return e.err.Error()
}

func (e *permanentError) Unwrap() error {
	return e.err
}

// Permanent wraps err so Do returns it immediately instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op until it succeeds or the policy's attempts are exhausted.
// The last error is returned when every attempt fails.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		result   T
		attempts int
	)
	err := goretry.Do(ctx, p.Backoff(), func(ctx context.Context) error {
		attempts++
		v, err := op(ctx)
		if err == nil {
			result = v
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		return goretry.RetryableError(err)
	})
	if err != nil {
		var zero T
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return zero, fmt.Errorf("retry aborted after %d attempts: %w", attempts, err)
		}
		return zero, err
	}
	return result, nil
}
