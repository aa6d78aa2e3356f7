// Copyright (c) 2025 BVK Chaitanya

package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bvk/refresher/exchange"
	"github.com/shopspring/decimal"
)

// DoubleOrdersConcurrency is the number of double orders created in
// parallel.
const DoubleOrdersConcurrency = 2

// conditionBuffer is subtracted from the sell price to compute the condition
// target price.
var conditionBuffer = decimal.RequireFromString("0.00000010")

// DoubleOrders describes a ladder of conditional sell orders where every step
// sells half the previous step's quantity at twice the previous step's price.
type DoubleOrders struct {
	Base   string
	Symbol string

	BuyPrice    decimal.Decimal
	BuyQuantity decimal.Decimal

	Count int
}

func (v *DoubleOrders) setDefaults() {
	if len(v.Base) == 0 {
		v.Base = "BTC"
	}
	if v.Count == 0 {
		v.Count = 2
	}
}

// Check validates the ladder parameters.
func (v *DoubleOrders) Check() error {
	if len(v.Symbol) == 0 {
		return fmt.Errorf("symbol cannot be empty")
	}
	if !v.BuyPrice.IsPositive() {
		return fmt.Errorf("buy price must be positive")
	}
	if !v.BuyQuantity.IsPositive() {
		return fmt.Errorf("buy quantity must be positive")
	}
	if v.Count < 1 {
		return fmt.Errorf("order count must be at least one")
	}
	return nil
}

// Market returns the market name for the ladder.
func (v *DoubleOrders) Market() string {
	return strings.ToUpper(v.Base) + "-" + strings.ToUpper(v.Symbol)
}

// Plan returns the conditional sell orders for the ladder.
func (v *DoubleOrders) Plan() ([]*exchange.LimitOrder, error) {
	p := *v
	p.setDefaults()
	if err := p.Check(); err != nil {
		return nil, err
	}

	two := decimal.NewFromInt(2)
	quantity, price := p.BuyQuantity, p.BuyPrice

	var orders []*exchange.LimitOrder
	for i := 0; i < p.Count; i++ {
		quantity = quantity.Div(two)
		price = price.Mul(two)
		orders = append(orders, &exchange.LimitOrder{
			Market:          p.Market(),
			Quantity:        quantity,
			Rate:            price,
			Condition:       "GREATER_THAN",
			ConditionTarget: price.Sub(conditionBuffer).Round(8),
		})
	}
	return orders, nil
}

// CreateOrders creates all input orders of the given type through the order
// creator with a fixed concurrency.
func (r *Refresher) CreateOrders(ctx context.Context, typ exchange.OrderType, orders []*exchange.LimitOrder) []*Outcome {
	type item struct {
		id    string
		order *exchange.LimitOrder
	}
	items := make([]*item, len(orders))
	for i, order := range orders {
		items[i] = &item{id: fmt.Sprintf("create-%d", i+1), order: order}
	}

	return Batch(ctx, DoubleOrdersConcurrency, items, func(ctx context.Context, it *item) *Outcome {
		t, untrack, _ := r.track(it.id, &exchange.Order{Market: it.order.Market, OrderType: typ})
		defer untrack()

		if ctx.Err() != nil {
			return t.finish(Interrupted, "not started", r.now())
		}
		newID, err := r.createOrder(ctx, it.id, t, typ, it.order)
		if err != nil {
			if ctx.Err() != nil {
				return t.finish(Interrupted, err.Error(), r.now())
			}
			slog.Warn("could not create order (skipped)", "order", it.order, "err", err)
			return r.abandon(t, it.id, err.Error())
		}
		slog.Info("created order", "new-order-id", newID, "type", typ, "order", it.order)
		out := t.finish(Created, "", r.now())
		r.publish(OrderCreated, it.id, t, out.CreateAttempts, nil)
		return out
	})
}
