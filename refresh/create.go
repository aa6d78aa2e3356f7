// Copyright (c) 2025 BVK Chaitanya

package refresh

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bvk/refresher/exchange"
)

// CreateOrder creates a new limit buy or limit sell order, retrying at the
// policy's retry period till the exchange accepts the order. Only an invalid
// order or an expired context stops the retries.
//
// Order types other than LIMIT_BUY and LIMIT_SELL are a programming error and
// cause a panic.
func (r *Refresher) CreateOrder(ctx context.Context, typ exchange.OrderType, order *exchange.LimitOrder) (exchange.OrderID, error) {
	id := fmt.Sprintf("create:%s:%p", order.Market, order)
	t, untrack, _ := r.track(id, &exchange.Order{Market: order.Market, OrderType: typ})
	defer untrack()

	return r.createOrder(ctx, id, t, typ, order)
}

func (r *Refresher) createOrder(ctx context.Context, taskID string, t *task, typ exchange.OrderType, order *exchange.LimitOrder) (exchange.OrderID, error) {
	var create func(context.Context, *exchange.LimitOrder) (exchange.OrderID, error)
	switch typ {
	case exchange.LimitBuy:
		create = r.gw.LimitBuy
	case exchange.LimitSell:
		create = r.gw.LimitSell
	default:
		panic(fmt.Sprintf("create order: %v: %q", exchange.ErrUnsupportedOrderType, typ))
	}

	if err := order.Check(); err != nil {
		return "", fmt.Errorf("invalid %s order %s: %w", typ, order, err)
	}

	t.setState(CreateRequested)

	var newID exchange.OrderID
	_, err := r.retryPolicy(0).Retry(ctx, func(attempt int) (bool, error) {
		t.update(func(out *Outcome) { out.CreateAttempts = attempt })

		id, err := create(ctx, order)
		if err != nil {
			if ctx.Err() != nil {
				return false, context.Cause(ctx)
			}
			slog.Warn("could not create order (will retry)", "type", typ, "order", order, "attempt", attempt, "err", err)
			r.publish(CreateFailed, taskID, t, attempt, err)
			return false, nil
		}
		newID = id
		return true, nil
	})
	if err != nil {
		return "", err
	}
	t.update(func(out *Outcome) { out.NewOrderID = newID })
	return newID, nil
}
