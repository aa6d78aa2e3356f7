// Copyright (c) 2025 BVK Chaitanya

// Package gaps finds price ranges skipped between consecutive candles that
// later candles haven't traded back into.
package gaps

import (
	"fmt"
	"sort"
	"time"

	"github.com/bvk/refresher/exchange"
	"github.com/shopspring/decimal"
)

type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Gap is an unfilled price range. For gap-ups, Lower is the high of the
// candle before the gap and Upper is the lowest low seen since then. For
// gap-downs, Upper is the low of the candle before the gap and Lower is the
// highest high seen since then.
type Gap struct {
	Direction Direction

	// OpenedAt is the start time of the first candle after the gap.
	OpenedAt time.Time

	Lower decimal.Decimal
	Upper decimal.Decimal

	// Original is the gap size when it was opened.
	Original decimal.Decimal
}

func (g *Gap) String() string {
	return fmt.Sprintf("{%s %s %s-%s}", g.Direction, g.OpenedAt.Format(time.DateTime), g.Lower, g.Upper)
}

// Size returns the unfilled size of the gap.
func (g *Gap) Size() decimal.Decimal {
	return g.Upper.Sub(g.Lower)
}

// Percent returns the unfilled size as a percentage of the lower bound.
func (g *Gap) Percent() decimal.Decimal {
	if !g.Lower.IsPositive() {
		return decimal.Zero
	}
	return g.Size().Div(g.Lower).Mul(decimal.NewFromInt(100))
}

// Find returns the unfilled gaps in the input candles, oldest first. Gaps
// whose unfilled size is less than minPct percent of their lower bound are
// skipped. Input candles are sorted by start time.
func Find(candles []*exchange.Candle, minPct decimal.Decimal) []*Gap {
	sorted := append([]*exchange.Candle(nil), candles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime.Before(sorted[j].StartTime.Time)
	})

	var open []*Gap
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]

		// Fill the existing gaps with the current candle's range.
		live := open[:0]
		for _, g := range open {
			switch g.Direction {
			case Up:
				g.Upper = decimal.Min(g.Upper, cur.Low)
			case Down:
				g.Lower = decimal.Max(g.Lower, cur.High)
			}
			if g.Upper.GreaterThan(g.Lower) {
				live = append(live, g)
			}
		}
		open = live

		if cur.Low.GreaterThan(prev.High) {
			open = append(open, &Gap{
				Direction: Up,
				OpenedAt:  cur.StartTime.Time,
				Lower:     prev.High,
				Upper:     cur.Low,
				Original:  cur.Low.Sub(prev.High),
			})
		} else if cur.High.LessThan(prev.Low) {
			open = append(open, &Gap{
				Direction: Down,
				OpenedAt:  cur.StartTime.Time,
				Lower:     cur.High,
				Upper:     prev.Low,
				Original:  prev.Low.Sub(cur.High),
			})
		}
	}

	var gaps []*Gap
	for _, g := range open {
		if g.Percent().LessThan(minPct) {
			continue
		}
		gaps = append(gaps, g)
	}
	return gaps
}
