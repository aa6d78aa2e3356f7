// Copyright (c) 2023 BVK Chaitanya

package exchange

import (
	"fmt"
	"time"
)

func (v *Order) String() string {
	return fmt.Sprintf("{ID %s Market %s Type %s Quantity %s Remaining %s Limit %s Opened %s}",
		v.OrderID, v.Market, v.OrderType, v.Quantity, v.QuantityRemaining, v.Limit, v.Opened.Time.Format(time.DateTime))
}

// Age returns the time elapsed since the order was opened.
func (v *Order) Age(now time.Time) time.Duration {
	return now.Sub(v.Opened.Time)
}

// IsOpen returns false for orders that are closed or have a cancellation in
// progress.
func (v *Order) IsOpen() bool {
	return !v.CancelInitiated && v.Closed.Time.IsZero()
}

// Replacement returns limit order parameters equivalent to the unfilled
// remainder of the order.
func (v *Order) Replacement() *LimitOrder {
	return &LimitOrder{
		Market:   v.Market,
		Quantity: v.QuantityRemaining,
		Rate:     v.Limit,
	}
}

// LimitOrders returns the limit buy and limit sell orders from the input in
// their original order.
func LimitOrders(orders []*Order) []*Order {
	var limits []*Order
	for _, v := range orders {
		if v.OrderType.IsLimit() {
			limits = append(limits, v)
		}
	}
	return limits
}
