// Copyright (c) 2025 BVK Chaitanya

package exchange

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type CandleInterval string

const (
	OneMinute     CandleInterval = "oneMin"
	FiveMinutes   CandleInterval = "fiveMin"
	ThirtyMinutes CandleInterval = "thirtyMin"
	OneHour       CandleInterval = "hour"
	OneDay        CandleInterval = "day"
)

// ParseCandleInterval parses user friendly interval names.
func ParseCandleInterval(s string) (CandleInterval, error) {
	switch s {
	case "1m", "oneMin":
		return OneMinute, nil
	case "5m", "fiveMin":
		return FiveMinutes, nil
	case "30m", "thirtyMin":
		return ThirtyMinutes, nil
	case "1h", "hour":
		return OneHour, nil
	case "1d", "day":
		return OneDay, nil
	}
	return "", fmt.Errorf("invalid candle interval %q", s)
}

func (v CandleInterval) Duration() time.Duration {
	switch v {
	case OneMinute:
		return time.Minute
	case FiveMinutes:
		return 5 * time.Minute
	case ThirtyMinutes:
		return 30 * time.Minute
	case OneHour:
		return time.Hour
	case OneDay:
		return 24 * time.Hour
	}
	return 0
}

type Candle struct {
	StartTime RemoteTime

	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal

	Volume decimal.Decimal
}
