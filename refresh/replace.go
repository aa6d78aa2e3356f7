// Copyright (c) 2025 BVK Chaitanya

package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bvk/refresher/ctxutil"
	"github.com/bvk/refresher/exchange"
)

// Replace cancels an open limit order and, once the cancellation is
// confirmed, creates a new order with the same market, type and rate for the
// order's remaining quantity.
//
// Orders that cannot be recreated as valid limit orders are abandoned without
// issuing a cancel request. The order creation that follows a confirmed
// cancellation is not stopped by the context cancellation.
func (r *Refresher) Replace(ctx context.Context, order *exchange.Order) *Outcome {
	id := string(order.OrderID)
	t, untrack, ok := r.track(id, order)
	defer untrack()

	if !ok {
		return r.abandon(t, id, ErrDuplicateTask.Error())
	}
	if !order.OrderType.IsLimit() {
		slog.Warn("order type cannot be replaced (skipped)", "order-id", order.OrderID, "type", order.OrderType)
		return r.abandon(t, id, fmt.Sprintf("%v %q", exchange.ErrUnsupportedOrderType, order.OrderType))
	}
	if err := order.Replacement().Check(); err != nil {
		slog.Warn("order cannot be recreated (skipped)", "order-id", order.OrderID, "order", order.Replacement(), "err", err)
		return r.abandon(t, id, fmt.Sprintf("invalid replacement: %v", err))
	}
	if ctx.Err() != nil {
		return t.finish(Interrupted, "not started", r.now())
	}

	if out := r.cancel(ctx, t, order); out != nil {
		return out
	}

	cctx := context.WithoutCancel(ctx)
	newID, err := r.createOrder(cctx, id, t, order.OrderType, order.Replacement())
	if err != nil {
		slog.Error("could not create replacement for a canceled order (needs manual restore)", "order", order, "err", err)
		return r.abandon(t, id, fmt.Sprintf("create failed: %v", err))
	}

	slog.Info("replaced order", "old-order-id", order.OrderID, "new-order-id", newID, "market", order.Market, "type", order.OrderType)
	out := t.finish(Created, "", r.now())
	r.publish(OrderReplaced, id, t, out.CreateAttempts, nil)
	return out
}

// CancelOnly cancels an open order and waits for the cancellation to be
// confirmed. No new order is created.
func (r *Refresher) CancelOnly(ctx context.Context, order *exchange.Order) *Outcome {
	id := string(order.OrderID)
	t, untrack, ok := r.track(id, order)
	defer untrack()

	if !ok {
		return r.abandon(t, id, ErrDuplicateTask.Error())
	}
	if ctx.Err() != nil {
		return t.finish(Interrupted, "not started", r.now())
	}
	if out := r.cancel(ctx, t, order); out != nil {
		return out
	}

	slog.Info("canceled order", "order-id", order.OrderID, "market", order.Market, "type", order.OrderType)
	out := t.finish(Cancelled, "", r.now())
	r.publish(OrderCancelled, id, t, out.CancelPolls, nil)
	return out
}

// CreateOnly creates a new order equivalent to the unfilled remainder of the
// input order. It assumes the input order no longer exists on the exchange.
func (r *Refresher) CreateOnly(ctx context.Context, order *exchange.Order) *Outcome {
	id := string(order.OrderID)
	t, untrack, ok := r.track(id, order)
	defer untrack()

	if !ok {
		return r.abandon(t, id, ErrDuplicateTask.Error())
	}
	if ctx.Err() != nil {
		return t.finish(Interrupted, "not started", r.now())
	}
	if !order.OrderType.IsLimit() {
		return r.abandon(t, id, fmt.Sprintf("%v %q", exchange.ErrUnsupportedOrderType, order.OrderType))
	}

	newID, err := r.createOrder(ctx, id, t, order.OrderType, order.Replacement())
	if err != nil {
		if ctx.Err() != nil {
			slog.Error("order creation was interrupted (needs manual restore)", "order", order, "err", err)
			return t.finish(Interrupted, err.Error(), r.now())
		}
		slog.Warn("could not create order (skipped)", "order", order, "err", err)
		return r.abandon(t, id, err.Error())
	}

	slog.Info("created order", "old-order-id", order.OrderID, "new-order-id", newID, "market", order.Market, "type", order.OrderType)
	out := t.finish(Created, "", r.now())
	r.publish(OrderCreated, id, t, out.CreateAttempts, nil)
	return out
}

// cancel runs the cancellation half of a workflow. Returns a non-nil,
// terminal outcome if the workflow cannot continue.
func (r *Refresher) cancel(ctx context.Context, t *task, order *exchange.Order) *Outcome {
	id := string(order.OrderID)
	ok, err := r.confirmCancel(ctx, t)
	if err != nil {
		if errors.Is(err, ctxutil.ErrAttemptsExhausted) {
			slog.Error("order cancellation could not be confirmed (needs manual check)", "order", order, "err", err)
			return r.abandon(t, id, "cancel unconfirmed")
		}
		slog.Error("order workflow was interrupted before cancel confirmation (needs manual check)", "order", order, "err", err)
		return t.finish(Interrupted, fmt.Sprintf("interrupted in %s state", t.snapshot().State), r.now())
	}
	if !ok {
		return t.finish(Abandoned, "cancel rejected", r.now())
	}
	return nil
}

func (r *Refresher) abandon(t *task, id, reason string) *Outcome {
	out := t.finish(Abandoned, reason, r.now())
	r.publish(TaskAbandoned, id, t, 0, errors.New(reason))
	return out
}
