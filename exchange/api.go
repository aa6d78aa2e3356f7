// Copyright (c) 2023 BVK Chaitanya

package exchange

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderID is the exchange assigned order handle. It is opaque to this
// program and is never created locally.
type OrderID string

// Check returns an error if the order id is not a well-formed uuid.
func (v OrderID) Check() error {
	if len(v) == 0 {
		return fmt.Errorf("order id cannot be empty")
	}
	if _, err := uuid.Parse(string(v)); err != nil {
		return fmt.Errorf("order id %q is not a valid uuid: %w", string(v), err)
	}
	return nil
}

type OrderType string

const (
	LimitBuy  OrderType = "LIMIT_BUY"
	LimitSell OrderType = "LIMIT_SELL"
)

// IsLimit returns true for limit buy and limit sell order types.
func (t OrderType) IsLimit() bool {
	return t == LimitBuy || t == LimitSell
}

// Side returns "buy" or "sell" for limit order types and an empty string for
// all other order types.
func (t OrderType) Side() string {
	switch t {
	case LimitBuy:
		return "buy"
	case LimitSell:
		return "sell"
	}
	return ""
}

// Order describes an open order as reported by the exchange. JSON field names
// follow the exchange's open-orders listing, so backup files written by this
// package can be read back as restore inputs.
type Order struct {
	OrderID OrderID `json:"OrderUuid"`

	Market string `json:"Exchange"`

	OrderType OrderType `json:"OrderType"`

	Quantity          decimal.Decimal `json:"Quantity"`
	QuantityRemaining decimal.Decimal `json:"QuantityRemaining"`

	Limit decimal.Decimal `json:"Limit"`

	Opened RemoteTime `json:"Opened"`
	Closed RemoteTime `json:"Closed"`

	CancelInitiated bool `json:"CancelInitiated"`

	IsConditional   bool            `json:"IsConditional"`
	Condition       string          `json:"Condition,omitempty"`
	ConditionTarget decimal.Decimal `json:"ConditionTarget"`
}

// OrderStatus is the subset of an order lookup result used to confirm
// cancellations.
type OrderStatus struct {
	OrderID OrderID

	IsOpen bool

	CancelInitiated bool

	QuantityRemaining decimal.Decimal
}

// LimitOrder holds the parameters for creating a new limit order.
type LimitOrder struct {
	Market   string          `json:"market"`
	Quantity decimal.Decimal `json:"quantity"`
	Rate     decimal.Decimal `json:"rate"`

	// Condition and ConditionTarget are optional. When Condition is non-empty
	// the order is placed as a conditional order.
	Condition       string          `json:"condition,omitempty"`
	ConditionTarget decimal.Decimal `json:"conditionTarget"`
}

func (v *LimitOrder) String() string {
	if len(v.Condition) == 0 {
		return fmt.Sprintf("{Market %s Quantity %s Rate %s}", v.Market, v.Quantity, v.Rate)
	}
	return fmt.Sprintf("{Market %s Quantity %s Rate %s Condition %s %s}", v.Market, v.Quantity, v.Rate, v.Condition, v.ConditionTarget)
}

// Check validates the limit order parameters.
func (v *LimitOrder) Check() error {
	if len(v.Market) == 0 {
		return fmt.Errorf("market name cannot be empty")
	}
	if !v.Quantity.IsPositive() {
		return fmt.Errorf("quantity must be positive")
	}
	if !v.Rate.IsPositive() {
		return fmt.Errorf("rate must be positive")
	}
	return nil
}

// Gateway is the request/response surface of an exchange account used by the
// order refresher. Transport failures are returned as plain errors;
// application level rejections are returned as *APIError values which match
// ErrRejected.
type Gateway interface {
	ListOpenOrders(ctx context.Context) ([]*Order, error)

	CancelOrder(ctx context.Context, id OrderID) error

	// GetOrderStatus returns ErrNoResult when the exchange reports success
	// without any order data.
	GetOrderStatus(ctx context.Context, id OrderID) (*OrderStatus, error)

	LimitBuy(ctx context.Context, order *LimitOrder) (OrderID, error)
	LimitSell(ctx context.Context, order *LimitOrder) (OrderID, error)
}

// CandleSource returns historical candles for a market.
type CandleSource interface {
	GetCandles(ctx context.Context, market string, interval CandleInterval) ([]*Candle, error)
}
