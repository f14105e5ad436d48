package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain collects every delay a schedule yields until it stops.
func drain(p Policy) []time.Duration {
	b := p.Backoff()
	var delays []time.Duration
	for {
		d, stop := b.Next()
		if stop {
			return delays
		}
		delays = append(delays, d)
	}
}

func TestPolicy_BackoffDoubles(t *testing.T) {
	assert.Equal(t, []time.Duration{
		700 * time.Millisecond,
		1400 * time.Millisecond,
		2800 * time.Millisecond,
	}, drain(FeedPolicy))

	assert.Equal(t, []time.Duration{
		600 * time.Millisecond,
		1200 * time.Millisecond,
	}, drain(DetailPolicy))
}

func TestPolicy_WithoutDelay(t *testing.T) {
	p := FeedPolicy.WithoutDelay()
	assert.Equal(t, FeedPolicy.Tries, p.Tries)
	assert.Equal(t, []time.Duration{0, 0, 0}, drain(p))
}

func TestPolicy_BackoffIsFreshPerCall(t *testing.T) {
	first := DetailPolicy.Backoff()
	_, _ = first.Next()
	_, _ = first.Next()

	d, stop := DetailPolicy.Backoff().Next()
	assert.False(t, stop)
	assert.Equal(t, 600*time.Millisecond, d)
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0

	result, err := Do(context.Background(), FeedPolicy, func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0

	result, err := Do(context.Background(), FeedPolicy.WithoutDelay(), func(context.Context) (int, error) {
		calls++
		if calls < 4 {
			return 0, errors.New("transient")
		}
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, 4, calls)
}

func TestDo_ReturnsLastError(t *testing.T) {
	calls := 0

	_, err := Do(context.Background(), DetailPolicy.WithoutDelay(), func(context.Context) (int, error) {
		calls++
		return 0, errors.New("failure " + string(rune('0'+calls)))
	})

	require.Error(t, err)
	assert.Equal(t, "failure 3", err.Error())
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	sentinel := errors.New("auth failed")
	calls := 0

	_, err := Do(context.Background(), FeedPolicy, func(context.Context) (int, error) {
		calls++
		return 0, Permanent(sentinel)
	})

	require.Error(t, err)
	assert.Equal(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ZeroTriesRunsOnce(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{Tries: 0}, func(context.Context) (int, error) {
		calls++
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	_, err := Do(ctx, Policy{Tries: 3, BaseDelay: time.Hour}, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("transient")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "retry aborted after 1 attempts")
	assert.Equal(t, 1, calls)
}

func TestPermanent_Nil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
