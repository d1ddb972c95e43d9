package generator

import (
	"context"
	"math/rand"
	"time"
)

// retryOpts configures generation retry behavior.
type retryOpts struct {
	maxAttempts int
	initialWait time.Duration
	maxWait     time.Duration
	jitter      bool
}

// defaultRetry bounds transient model failures to three attempts total.
var defaultRetry = retryOpts{
	maxAttempts: 3,
	initialWait: time.Second,
	maxWait:     10 * time.Second,
	jitter:      true,
}

// retry runs f up to maxAttempts times with exponential backoff. The final
// attempt's error is returned unchanged so the caller's classification holds.
func retry[T any](ctx context.Context, opts retryOpts, f func(context.Context) (T, error)) (T, error) {
	var result T
	var err error
	wait := opts.initialWait

	for attempt := 0; attempt < opts.maxAttempts; attempt++ {
		result, err = f(ctx)
		if err == nil {
			return result, nil
		}
		if attempt == opts.maxAttempts-1 {
			break
		}

		sleep := wait
		if opts.jitter {
			sleep = time.Duration(float64(wait) * (0.5 + rand.Float64()))
		}
		if sleep > opts.maxWait {
			sleep = opts.maxWait
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(sleep):
		}

		wait *= 2
		if wait > opts.maxWait {
			wait = opts.maxWait
		}
	}
	return result, err
}
