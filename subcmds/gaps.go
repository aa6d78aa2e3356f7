// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bvk/refresher/bittrex"
	"github.com/bvk/refresher/exchange"
	"github.com/bvk/refresher/gaps"
	"github.com/bvk/refresher/subcmds/cmdutil"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
)

type Gaps struct {
	cmdutil.DataFlags

	market   string
	interval string
	minPct   float64
}

func (c *Gaps) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("gaps", flag.ContinueOnError)
	c.DataFlags.SetFlags(fset)
	fset.StringVar(&c.market, "market", "", "market name (ex: BTC-ETH)")
	fset.StringVar(&c.interval, "interval", "day", "candle interval (oneMin, fiveMin, thirtyMin, hour or day)")
	fset.Float64Var(&c.minPct, "min-pct", 0, "minimum unfilled gap size as a percentage of the lower price")
	return "gaps", fset, cli.CmdFunc(c.run)
}

func (c *Gaps) Purpose() string {
	return "Prints unfilled price gaps in a market's candles"
}

func (c *Gaps) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	if len(c.market) == 0 {
		return fmt.Errorf("flag -market is required")
	}
	if c.minPct < 0 {
		return fmt.Errorf("flag -min-pct cannot be negative")
	}
	interval, err := exchange.ParseCandleInterval(c.interval)
	if err != nil {
		return err
	}

	dataDir, err := c.DataDir()
	if err != nil {
		return err
	}
	cfg, err := c.LoadConfig(dataDir)
	if err != nil {
		return err
	}
	client, err := bittrex.New(cfg.Credentials.Key, cfg.Credentials.Secret, cfg.BittrexOptions())
	if err != nil {
		return err
	}
	defer client.Close()

	return printGaps(ctx, os.Stdout, client, c.market, interval, decimal.NewFromFloat(c.minPct))
}

func printGaps(ctx context.Context, w io.Writer, src exchange.CandleSource, market string, interval exchange.CandleInterval, minPct decimal.Decimal) error {
	candles, err := src.GetCandles(ctx, market, interval)
	if err != nil {
		return fmt.Errorf("could not fetch candles for %s: %w", market, err)
	}
	found := gaps.Find(candles, minPct)
	if len(found) == 0 {
		fmt.Fprintf(w, "no unfilled gaps in %d candles\n", len(candles))
		return nil
	}
	for _, g := range found {
		fmt.Fprintf(w, "%-4s %s %s - %s (%s%% unfilled, originally %s)\n",
			g.Direction, g.OpenedAt.Format(time.DateTime), g.Lower, g.Upper,
			g.Percent().StringFixed(2), g.Original)
	}
	return nil
}
