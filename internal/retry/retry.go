/*
Package retry runs an operation under an explicit, bounded retry policy.
*/
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrAttemptsExhausted is wrapped by Do when every attempt failed with a
// retryable error.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// Policy bounds how an operation is retried.
type Policy struct {
	// MaxAttempts includes the first attempt. Values below one mean one.
	MaxAttempts int
	// Retryable decides whether a failed attempt may be repeated. A nil
	// predicate retries nothing.
	Retryable func(error) bool
	// Delay is the constant pause between attempts.
	Delay time.Duration
	// OnRetry, if set, is called before every repeated attempt.
	OnRetry func(err error, attempt int)
}

// Do calls fn until it succeeds, fails with a non-retryable error, the
// policy's attempts are used up, or ctx is done. Non-retryable errors are
// returned as is.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		attempts  int
		permanent bool
	)

	op := func() error {
		attempts++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, _ time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(err, attempts+1)
		}
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(maxAttempts-1)),
		ctx,
	)

	err := backoff.RetryNotify(op, b, notify)
	if err == nil || permanent {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempts, err)
}

// IsTimeout reports whether err is a network-level timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
