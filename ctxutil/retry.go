// Copyright (c) 2025 BVK Chaitanya

package ctxutil

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrAttemptsExhausted is returned by Retry when the policy's attempt limit
// is reached without a successful attempt.
var ErrAttemptsExhausted = errors.New("retry attempts exhausted")

// RetryPolicy describes a fixed-interval retry loop.
type RetryPolicy struct {
	// Interval is the delay between two successive attempts.
	Interval time.Duration

	// Jitter, when non-zero, adds a uniformly random extra delay in the
	// [0, Jitter) range to every interval.
	Jitter time.Duration

	// MaxAttempts limits the total number of attempts. Zero value means no
	// limit, in which case only the context can stop the retries.
	MaxAttempts int

	// Sleep is used to wait between the attempts. Defaults to the package
	// level Sleep function.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Delay returns the wait duration before the next attempt.
func (p *RetryPolicy) Delay() time.Duration {
	d := p.Interval
	if p.Jitter > 0 {
		d += rand.N(p.Jitter)
	}
	return d
}

// Wait blocks for one retry interval.
func (p *RetryPolicy) Wait(ctx context.Context) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, p.Delay())
	}
	return Sleep(ctx, p.Delay())
}

// Retry calls the input function till it reports done or a non-nil error.
// Function is invoked immediately for the first attempt and after a policy
// interval for every other attempt; attempt numbers start from one.
//
// Returns the number of attempts performed. Error is nil if the function
// reported done, the function's error if it failed, the context's cause if
// the context expired while waiting, or ErrAttemptsExhausted.
func (p *RetryPolicy) Retry(ctx context.Context, f func(attempt int) (done bool, err error)) (int, error) {
	for attempt := 1; ; attempt++ {
		done, err := f(attempt)
		if err != nil {
			return attempt, err
		}
		if done {
			return attempt, nil
		}
		if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
			return attempt, fmt.Errorf("gave up after %d attempts: %w", attempt, ErrAttemptsExhausted)
		}
		if err := p.Wait(ctx); err != nil {
			return attempt, err
		}
	}
}
