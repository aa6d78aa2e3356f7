// Copyright (c) 2025 BVK Chaitanya

package refresh

import (
	"fmt"
	"time"
)

// Policy holds the order refresh parameters. Policy values are read once at
// startup and are not changed for the lifetime of a Refresher.
type Policy struct {
	// MaxOrderAgeDays is the age in days beyond which a limit order is
	// considered stale. Orders exactly this old are not stale.
	MaxOrderAgeDays float64

	// ReplaceAllOrders selects every open order for replacement regardless of
	// the order type or age.
	ReplaceAllOrders bool

	// ConcurrentTasks limits the number of in-flight order workflows.
	ConcurrentTasks int

	// RetryPeriod is the fixed delay between two exchange call attempts.
	RetryPeriod time.Duration

	// RetryJitter adds a random extra delay up to this value to every retry.
	RetryJitter time.Duration

	// CancelPollLimit, when non-zero, bounds the number of order status
	// queries made while waiting for a cancellation to complete. Orders whose
	// cancellation cannot be confirmed within the limit are abandoned and are
	// NOT replaced. Zero value waits forever.
	CancelPollLimit int

	// DryRun when true only reports the stale orders; no orders are canceled
	// or created.
	DryRun bool

	// ProgressInterval is the time interval between in-flight task summaries
	// in the logs.
	ProgressInterval time.Duration
}

func (v *Policy) setDefaults() {
	if v.ConcurrentTasks == 0 {
		v.ConcurrentTasks = 1
	}
	if v.RetryPeriod == 0 {
		v.RetryPeriod = 5 * time.Second
	}
	if v.ProgressInterval == 0 {
		v.ProgressInterval = time.Minute
	}
}

// Check validates the policy values.
func (v *Policy) Check() error {
	if v.MaxOrderAgeDays < 0 {
		return fmt.Errorf("max order age days cannot be negative")
	}
	if v.ConcurrentTasks < 1 {
		return fmt.Errorf("concurrent tasks must be at least one")
	}
	if v.RetryPeriod < 0 || v.RetryJitter < 0 {
		return fmt.Errorf("retry period and jitter cannot be negative")
	}
	if v.CancelPollLimit < 0 {
		return fmt.Errorf("cancel poll limit cannot be negative")
	}
	return nil
}

// MaxOrderAge returns the maximum order age as a duration.
func (v *Policy) MaxOrderAge() time.Duration {
	return time.Duration(v.MaxOrderAgeDays * float64(24*time.Hour))
}
