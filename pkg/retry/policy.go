// Package retry runs upstream calls under a bounded retry policy.
//
// Backoff schedules come from github.com/sethvargo/go-retry; waiting is
// delegated to a Clock so tests can observe every wait without sleeping.
package retry

import (
	"context"
	"fmt"
	"time"

	goretry "github.com/sethvargo/go-retry"

	pkgerrors "github.com/angelmondragon/wb-sheets-sync/pkg/errors"
)

const (
	DefaultDelay      = 70 * time.Second
	DefaultMaxRetries = 3
)

// DelayFunc returns the wait before the given retry (1-based).
type DelayFunc func(retry int) time.Duration

// Clock waits for d or until ctx is done.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Policy bounds how often and how long a call is retried.
type Policy struct {
	MaxRetries uint64
	Delay      DelayFunc
	Clock      Clock
	// Retryable decides which failures are retried. Defaults to the
	// Retryable flag of the typed error code.
	Retryable func(error) bool
	// OnRetry observes each scheduled wait before it happens.
	OnRetry func(retry int, wait time.Duration, err error)
}

// Fixed returns a policy that waits delay between attempts, up to maxRetries
// retries (maxRetries+1 attempts in total).
func Fixed(maxRetries int, delay time.Duration) Policy {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return Policy{
		MaxRetries: uint64(maxRetries),
		Delay:      Constant(delay),
	}
}

// Constant produces a DelayFunc that always returns d.
func Constant(d time.Duration) DelayFunc {
	return func(int) time.Duration { return d }
}

// OnlyCodes builds a Retryable predicate matching the outermost typed code.
func OnlyCodes(codes ...pkgerrors.Code) func(error) bool {
	return func(err error) bool {
		typed := pkgerrors.As(err)
		if typed == nil {
			return false
		}
		for _, code := range codes {
			if typed.Code() == code {
				return true
			}
		}
		return false
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, or the policy
// runs out of retries. Exhaustion yields a RETRY_EXHAUSTED error wrapping the
// last failure.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = pkgerrors.IsRetryable
	}
	clock := p.Clock
	if clock == nil {
		clock = RealClock{}
	}
	delay := p.Delay
	if delay == nil {
		delay = Constant(DefaultDelay)
	}

	var (
		retries  int
		lastErr  error
		sleepErr error
	)
	// go-retry stops without consulting the inner backoff once MaxRetries is
	// reached, so retries always equals the number of waits performed.
	backoff := goretry.WithMaxRetries(p.MaxRetries, goretry.BackoffFunc(func() (time.Duration, bool) {
		retries++
		wait := delay(retries)
		if p.OnRetry != nil {
			p.OnRetry(retries, wait, lastErr)
		}
		if err := clock.Sleep(ctx, wait); err != nil {
			sleepErr = err
			return 0, true
		}
		return 0, false
	}))

	value, err := goretry.DoValue(ctx, backoff, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if err != nil && retryable(err) {
			lastErr = err
			return v, goretry.RetryableError(err)
		}
		return v, err
	})
	if err == nil {
		return value, nil
	}
	if sleepErr != nil {
		return value, fmt.Errorf("retry wait interrupted: %w", sleepErr)
	}
	if retryable(err) {
		return value, pkgerrors.Wrap(pkgerrors.CodeRetryExhausted, err,
			fmt.Sprintf("gave up after %d retries", retries))
	}
	return value, err
}

// RealClock sleeps on a timer and aborts when ctx is done.
type RealClock struct{}

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
