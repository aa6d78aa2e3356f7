// Copyright (c) 2025 BVK Chaitanya

package internal

import (
	"github.com/bvk/refresher/exchange"
	"github.com/shopspring/decimal"
)

// Response is the common envelope for all api responses. Result is nil when
// the server responds with a null result.
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  *T     `json:"result"`
}

type OpenOrder struct {
	Uuid      *string `json:"Uuid"`
	OrderUuid string  `json:"OrderUuid"`
	Exchange  string  `json:"Exchange"`
	OrderType string  `json:"OrderType"`

	Quantity          decimal.Decimal     `json:"Quantity"`
	QuantityRemaining decimal.Decimal     `json:"QuantityRemaining"`
	Limit             decimal.Decimal     `json:"Limit"`
	CommissionPaid    decimal.Decimal     `json:"CommissionPaid"`
	Price             decimal.Decimal     `json:"Price"`
	PricePerUnit      decimal.NullDecimal `json:"PricePerUnit"`

	Opened exchange.RemoteTime `json:"Opened"`
	Closed exchange.RemoteTime `json:"Closed"`

	CancelInitiated   bool                `json:"CancelInitiated"`
	ImmediateOrCancel bool                `json:"ImmediateOrCancel"`
	IsConditional     bool                `json:"IsConditional"`
	Condition         *string             `json:"Condition"`
	ConditionTarget   decimal.NullDecimal `json:"ConditionTarget"`
}

type Order struct {
	AccountId *string `json:"AccountId"`
	OrderUuid string  `json:"OrderUuid"`
	Exchange  string  `json:"Exchange"`
	Type      string  `json:"Type"`

	Quantity          decimal.Decimal     `json:"Quantity"`
	QuantityRemaining decimal.Decimal     `json:"QuantityRemaining"`
	Limit             decimal.Decimal     `json:"Limit"`
	Reserved          decimal.NullDecimal `json:"Reserved"`
	CommissionPaid    decimal.Decimal     `json:"CommissionPaid"`
	Price             decimal.Decimal     `json:"Price"`
	PricePerUnit      decimal.NullDecimal `json:"PricePerUnit"`

	Opened exchange.RemoteTime `json:"Opened"`
	Closed exchange.RemoteTime `json:"Closed"`

	IsOpen          bool `json:"IsOpen"`
	CancelInitiated bool `json:"CancelInitiated"`

	ImmediateOrCancel bool                `json:"ImmediateOrCancel"`
	IsConditional     bool                `json:"IsConditional"`
	Condition         *string             `json:"Condition"`
	ConditionTarget   decimal.NullDecimal `json:"ConditionTarget"`
}

type UuidResult struct {
	Uuid string `json:"uuid"`
}

// Tick is a candle in the v2 public api.
type Tick struct {
	Open       decimal.Decimal     `json:"O"`
	High       decimal.Decimal     `json:"H"`
	Low        decimal.Decimal     `json:"L"`
	Close      decimal.Decimal     `json:"C"`
	Volume     decimal.Decimal     `json:"V"`
	BaseVolume decimal.Decimal     `json:"BV"`
	Time       exchange.RemoteTime `json:"T"`
}

type GetOpenOrdersResponse = Response[[]*OpenOrder]

type GetOrderResponse = Response[Order]

type CancelResponse = Response[any]

type LimitOrderResponse = Response[UuidResult]

type GetTicksResponse = Response[[]*Tick]
