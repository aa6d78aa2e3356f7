// Copyright (c) 2025 BVK Chaitanya

package exchange

import (
	"errors"
	"fmt"
)

var (
	// ErrRejected matches all application level failures reported by the
	// exchange, i.e., responses with a false success flag.
	ErrRejected = errors.New("rejected by the exchange")

	// ErrNoResult is returned when the exchange reports success, but the
	// response carries no result data.
	ErrNoResult = errors.New("no result in the exchange response")

	// ErrUnsupportedOrderType indicates an order type that cannot be created as
	// a limit order.
	ErrUnsupportedOrderType = errors.New("unsupported order type")
)

// APIError is an application level failure reported by the exchange.
type APIError struct {
	Op      string
	Message string
}

func (e *APIError) Error() string {
	if len(e.Message) == 0 {
		return fmt.Sprintf("%s: %v", e.Op, ErrRejected)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrRejected, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrRejected
}
