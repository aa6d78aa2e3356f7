// Copyright (c) 2025 BVK Chaitanya

package refresh

import (
	"log/slog"
	"time"

	"github.com/bvk/refresher/exchange"
)

// SelectStale returns the open orders that must be replaced in this run.
//
// Orders that are closed or already have a cancellation in progress are never
// selected. When the policy replaces all orders every other input order is
// selected, including the non-limit orders. Otherwise, only limit orders that
// are strictly older than the maximum order age are selected.
func (r *Refresher) SelectStale(orders []*exchange.Order, now time.Time) []*exchange.Order {
	maxAge := r.policy.MaxOrderAge()
	var stale []*exchange.Order
	for _, order := range orders {
		if !order.IsOpen() {
			slog.Debug("order is not open (skipped)", "order-id", order.OrderID, "cancel-initiated", order.CancelInitiated)
			continue
		}
		if r.policy.ReplaceAllOrders {
			stale = append(stale, order)
			continue
		}
		if !order.OrderType.IsLimit() {
			continue
		}
		if order.Age(now) > maxAge {
			stale = append(stale, order)
		}
	}
	return stale
}
