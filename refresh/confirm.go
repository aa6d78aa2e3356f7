// Copyright (c) 2025 BVK Chaitanya

package refresh

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bvk/refresher/exchange"
)

// ConfirmCancel cancels an order and waits till the exchange reports it as
// closed.
//
// Returns false with a nil error if the cancel request itself failed; such
// orders have typically been filled or canceled already and callers should
// leave them alone. Returns true only after an order status query has
// reported the order as closed. Status query failures and still-open
// responses are retried at the policy's retry period, forever unless the
// policy has a cancel poll limit.
//
// A non-nil error is returned only when the context expired or the poll limit
// was reached, in which case the order may or may not be canceled.
func (r *Refresher) ConfirmCancel(ctx context.Context, id exchange.OrderID) (bool, error) {
	t, untrack, ok := r.track(string(id), &exchange.Order{OrderID: id})
	defer untrack()

	if !ok {
		return false, fmt.Errorf("order %s: %w", id, ErrDuplicateTask)
	}

	return r.confirmCancel(ctx, t)
}

func (r *Refresher) confirmCancel(ctx context.Context, t *task) (bool, error) {
	id := t.snapshot().OrderID
	t.setState(CancelRequested)

	if err := r.gw.CancelOrder(ctx, id); err != nil {
		slog.Warn("could not cancel order (skipped)", "order-id", id, "err", err)
		r.publish(CancelRejected, string(id), t, 1, err)
		return false, nil
	}

	// Give the exchange some time to process the cancellation before the
	// first status check.
	policy := r.retryPolicy(r.policy.CancelPollLimit)
	if err := policy.Wait(ctx); err != nil {
		return false, err
	}

	npolls, err := policy.Retry(ctx, func(attempt int) (bool, error) {
		t.update(func(out *Outcome) { out.CancelPolls = attempt })

		status, err := r.gw.GetOrderStatus(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return false, err
			}
			slog.Warn("could not check canceled order status (will retry)", "order-id", id, "attempt", attempt, "err", err)
			r.publish(StatusFailed, string(id), t, attempt, err)
			return false, nil
		}
		if status == nil {
			slog.Warn("order status query returned no result (will retry)", "order-id", id, "attempt", attempt)
			r.publish(StatusFailed, string(id), t, attempt, exchange.ErrNoResult)
			return false, nil
		}
		if status.IsOpen {
			slog.Debug("cancellation is still pending (will retry)", "order-id", id, "attempt", attempt)
			r.publish(CancelPending, string(id), t, attempt, nil)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}

	t.setState(CancelConfirmed)
	slog.Debug("order cancellation is confirmed", "order-id", id, "polls", npolls)
	return true, nil
}
