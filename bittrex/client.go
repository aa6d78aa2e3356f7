// Copyright (c) 2025 BVK Chaitanya

// Package bittrex implements the exchange gateway for Bittrex accounts.
package bittrex

import (
	"context"
	"fmt"
	"os"

	"github.com/bvk/refresher/bittrex/internal"
	"github.com/bvk/refresher/exchange"
	"github.com/shopspring/decimal"
)

type Client struct {
	opts Options

	client *internal.Client
}

var (
	_ exchange.Gateway      = &Client{}
	_ exchange.CandleSource = &Client{}
)

// New returns a client for the account with the given api credentials.
func New(key, secret string, opts *Options) (*Client, error) {
	if len(key) == 0 || len(secret) == 0 {
		return nil, fmt.Errorf("api key and secret are required: %w", os.ErrInvalid)
	}
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()
	if err := opts.Check(); err != nil {
		return nil, err
	}

	iopts := &internal.Options{
		RestURL:           opts.RestURL,
		PublicURL:         opts.PublicURL,
		HttpClientTimeout: opts.HttpClientTimeout,
		RequestsPerSecond: opts.RequestsPerSecond,
	}
	client, err := internal.New(key, secret, iopts)
	if err != nil {
		return nil, err
	}
	c := &Client{
		opts:   *opts,
		client: client,
	}
	return c, nil
}

// Close releases resources and destroys the client instance.
func (c *Client) Close() error {
	return c.client.Close()
}

func checkResponse[T any](op string, resp *internal.Response[T]) error {
	if !resp.Success {
		return &exchange.APIError{Op: op, Message: resp.Message}
	}
	return nil
}

func (c *Client) ListOpenOrders(ctx context.Context) ([]*exchange.Order, error) {
	resp, err := c.client.GetOpenOrders(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkResponse("getopenorders", resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, nil
	}
	orders := make([]*exchange.Order, 0, len(*resp.Result))
	for _, v := range *resp.Result {
		orders = append(orders, toOrder(v))
	}
	return orders, nil
}

func (c *Client) CancelOrder(ctx context.Context, id exchange.OrderID) error {
	resp, err := c.client.Cancel(ctx, string(id))
	if err != nil {
		return err
	}
	return checkResponse("cancel", resp)
}

func (c *Client) GetOrderStatus(ctx context.Context, id exchange.OrderID) (*exchange.OrderStatus, error) {
	resp, err := c.client.GetOrder(ctx, string(id))
	if err != nil {
		return nil, err
	}
	if err := checkResponse("getorder", resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("getorder %s: %w", id, exchange.ErrNoResult)
	}
	status := &exchange.OrderStatus{
		OrderID:           exchange.OrderID(resp.Result.OrderUuid),
		IsOpen:            resp.Result.IsOpen,
		CancelInitiated:   resp.Result.CancelInitiated,
		QuantityRemaining: resp.Result.QuantityRemaining,
	}
	return status, nil
}

func (c *Client) LimitBuy(ctx context.Context, order *exchange.LimitOrder) (exchange.OrderID, error) {
	resp, err := c.client.BuyLimit(ctx, toRequest(order))
	if err != nil {
		return "", err
	}
	return limitOrderID("buylimit", resp)
}

func (c *Client) LimitSell(ctx context.Context, order *exchange.LimitOrder) (exchange.OrderID, error) {
	resp, err := c.client.SellLimit(ctx, toRequest(order))
	if err != nil {
		return "", err
	}
	return limitOrderID("selllimit", resp)
}

func (c *Client) GetCandles(ctx context.Context, market string, interval exchange.CandleInterval) ([]*exchange.Candle, error) {
	resp, err := c.client.GetTicks(ctx, market, string(interval))
	if err != nil {
		return nil, err
	}
	if err := checkResponse("getticks", resp); err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("getticks %s: %w", market, exchange.ErrNoResult)
	}
	candles := make([]*exchange.Candle, 0, len(*resp.Result))
	for _, v := range *resp.Result {
		candles = append(candles, &exchange.Candle{
			StartTime: v.Time,
			Open:      v.Open,
			High:      v.High,
			Low:       v.Low,
			Close:     v.Close,
			Volume:    v.Volume,
		})
	}
	return candles, nil
}

func limitOrderID(op string, resp *internal.LimitOrderResponse) (exchange.OrderID, error) {
	if err := checkResponse(op, resp); err != nil {
		return "", err
	}
	if resp.Result == nil || len(resp.Result.Uuid) == 0 {
		return "", fmt.Errorf("%s: %w", op, exchange.ErrNoResult)
	}
	return exchange.OrderID(resp.Result.Uuid), nil
}

func toRequest(order *exchange.LimitOrder) *internal.LimitOrderRequest {
	req := &internal.LimitOrderRequest{
		Market:   order.Market,
		Quantity: order.Quantity.String(),
		Rate:     order.Rate.String(),
	}
	if len(order.Condition) != 0 {
		req.Condition = order.Condition
		req.ConditionTarget = order.ConditionTarget.StringFixed(8)
	}
	return req
}

func toOrder(v *internal.OpenOrder) *exchange.Order {
	order := &exchange.Order{
		OrderID:           exchange.OrderID(v.OrderUuid),
		Market:            v.Exchange,
		OrderType:         exchange.OrderType(v.OrderType),
		Quantity:          v.Quantity,
		QuantityRemaining: v.QuantityRemaining,
		Limit:             v.Limit,
		Opened:            v.Opened,
		Closed:            v.Closed,
		CancelInitiated:   v.CancelInitiated,
		IsConditional:     v.IsConditional,
		ConditionTarget:   decimal.Zero,
	}
	if v.Condition != nil {
		order.Condition = *v.Condition
	}
	if v.ConditionTarget.Valid {
		order.ConditionTarget = v.ConditionTarget.Decimal
	}
	return order
}
