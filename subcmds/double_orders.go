// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/bvk/refresher/bittrex"
	"github.com/bvk/refresher/exchange"
	"github.com/bvk/refresher/refresh"
	"github.com/bvk/refresher/subcmds/cmdutil"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
	"golang.org/x/term"
)

type DoubleOrders struct {
	cmdutil.DataFlags
	cmdutil.LogFlags
}

func (c *DoubleOrders) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("double-orders", flag.ContinueOnError)
	c.DataFlags.SetFlags(fset)
	c.LogFlags.SetFlags(fset)
	return "double-orders", fset, cli.CmdFunc(c.run)
}

func (c *DoubleOrders) Purpose() string {
	return "Creates conditional sell orders that double the price at every step"
}

func (c *DoubleOrders) Description() string {
	return `

Command "double-orders" prompts for a market and the price and quantity of a
completed buy and creates a ladder of conditional sell orders. Every step
sells half of the previous quantity at twice the previous price and triggers
when the market price is greater than the sell price minus 0.0000001.

`
}

// lineReader is the subset of term.Terminal used by the prompts.
type lineReader interface {
	SetPrompt(prompt string)
	ReadLine() (string, error)
}

// errDeclined is returned when the user doesn't confirm the orders.
var errDeclined = errors.New("declined")

func prompt(lr lineReader, label, defaultValue string) (string, error) {
	if len(defaultValue) != 0 {
		lr.SetPrompt(fmt.Sprintf("%s [%s]: ", label, defaultValue))
	} else {
		lr.SetPrompt(label + ": ")
	}
	line, err := lr.ReadLine()
	if err != nil {
		return "", err
	}
	if line = strings.TrimSpace(line); len(line) == 0 {
		return defaultValue, nil
	}
	return line, nil
}

// askDoubleOrders prompts for the ladder parameters and the confirmation.
func askDoubleOrders(lr lineReader, w io.Writer) (*refresh.DoubleOrders, []*exchange.LimitOrder, error) {
	v := new(refresh.DoubleOrders)

	var err error
	if v.Base, err = prompt(lr, "Base market symbol", "BTC"); err != nil {
		return nil, nil, err
	}
	if v.Symbol, err = prompt(lr, "Symbol", ""); err != nil {
		return nil, nil, err
	}
	price, err := prompt(lr, "Buy price", "")
	if err != nil {
		return nil, nil, err
	}
	if v.BuyPrice, err = decimal.NewFromString(price); err != nil {
		return nil, nil, fmt.Errorf("invalid buy price %q: %w", price, err)
	}
	quantity, err := prompt(lr, "Buy quantity", "")
	if err != nil {
		return nil, nil, err
	}
	if v.BuyQuantity, err = decimal.NewFromString(quantity); err != nil {
		return nil, nil, fmt.Errorf("invalid buy quantity %q: %w", quantity, err)
	}
	count, err := prompt(lr, "Order count", "2")
	if err != nil {
		return nil, nil, err
	}
	if v.Count, err = strconv.Atoi(count); err != nil {
		return nil, nil, fmt.Errorf("invalid order count %q: %w", count, err)
	}

	orders, err := v.Plan()
	if err != nil {
		return nil, nil, err
	}
	for _, order := range orders {
		fmt.Fprintf(w, "SELL %s %s at %s when price > %s\r\n", order.Market, order.Quantity, order.Rate, order.ConditionTarget)
	}
	answer, err := prompt(lr, "Proceed [Y/N]", "")
	if err != nil {
		return nil, nil, err
	}
	if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
		return nil, nil, errDeclined
	}
	return v, orders, nil
}

func (c *DoubleOrders) readOrders() ([]*exchange.LimitOrder, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("this command needs an interactive terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, err
	}
	defer term.Restore(fd, oldState)

	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	t := term.NewTerminal(screen, "")
	_, orders, err := askDoubleOrders(t, t)
	return orders, err
}

func (c *DoubleOrders) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	dataDir, err := c.DataDir()
	if err != nil {
		return err
	}
	cfg, err := c.LoadConfig(dataDir)
	if err != nil {
		return err
	}

	orders, err := c.readOrders()
	if err != nil {
		if errors.Is(err, errDeclined) {
			fmt.Println("No orders are created.")
			return nil
		}
		return err
	}

	flush, err := c.LogFlags.Setup(dataDir)
	if err != nil {
		return err
	}
	defer flush()

	unlock, err := cmdutil.LockDataDir(dataDir)
	if err != nil {
		return err
	}
	defer unlock()

	client, err := bittrex.New(cfg.Credentials.Key, cfg.Credentials.Secret, cfg.BittrexOptions())
	if err != nil {
		return err
	}
	defer client.Close()

	refresher, err := refresh.New(client, nil /* backup */, cfg.Policy(false))
	if err != nil {
		return err
	}
	defer refresher.Close()

	outcomes := refresher.CreateOrders(ctx, exchange.LimitSell, orders)
	for i, out := range outcomes {
		if out.State == refresh.Created {
			fmt.Printf("%s %s %s at %s: %s\n", out.State, orders[i].Market, orders[i].Quantity, orders[i].Rate, out.NewOrderID)
			continue
		}
		fmt.Printf("%s %s %s at %s: %s\n", out.State, orders[i].Market, orders[i].Quantity, orders[i].Rate, out.Reason)
	}
	if ctx.Err() != nil {
		return cmdutil.ErrInterrupted
	}
	return nil
}
