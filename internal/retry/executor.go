package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vvka-141/conncache/pkg/conncache"
)

// RetryEvent describes a failed connection attempt that is about to be retried.
type RetryEvent struct {
	// Retry is zero-indexed: 0 precedes the first retry.
	Retry int
	Delay time.Duration
	Err   error

	// Target and AttemptID come from a *conncache.ConnectionError in Err;
	// both are empty for other errors.
	Target    string
	AttemptID string
}

func newRetryEvent(retry int, delay time.Duration, err error) RetryEvent {
	ev := RetryEvent{Retry: retry, Delay: delay, Err: err}
	var connErr *conncache.ConnectionError
	if errors.As(err, &connErr) {
		ev.Target = connErr.Target
		ev.AttemptID = connErr.Attempt
	}
	return ev
}

// Executor repeats a connection operation while its failures are transient.
//
// Safe for concurrent use. WithOnRetry returns a copy.
type Executor struct {
	classifier conncache.ErrorClassifier
	strategy   conncache.BackoffStrategy
	onRetry    func(RetryEvent)
}

// NewExecutor creates a new retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier conncache.ErrorClassifier, strategy conncache.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// WithOnRetry returns a copy of e that calls callback before each backoff wait.
func (e *Executor) WithOnRetry(callback func(RetryEvent)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs operation until it succeeds, fails fatally, or the retry
// budget is spent. When retries run out the last error is wrapped with the
// retry count and still matches its sentinel via errors.Is. ctx ending
// during a backoff wait returns ctx.Err().
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	maxRetries := e.strategy.MaxAttempts()

	err := operation(ctx)
	retries := 0
	for ; err != nil && e.classifier.IsTransient(err); retries++ {
		// A negative budget retries until ctx ends.
		if maxRetries >= 0 && retries >= maxRetries {
			if retries == 0 {
				return err
			}
			return fmt.Errorf("giving up after %d retries: %w", retries, err)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		delay := e.strategy.NextDelay(retries)
		if e.onRetry != nil {
			e.onRetry(newRetryEvent(retries, delay, err))
		}
		if waitErr := sleep(ctx, delay); waitErr != nil {
			return waitErr
		}
		err = operation(ctx)
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
