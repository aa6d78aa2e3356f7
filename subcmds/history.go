// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bvk/refresher/journal"
	"github.com/bvk/refresher/refresh"
	"github.com/bvk/refresher/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type History struct {
	cmdutil.DataFlags

	count   int
	details bool
}

func (c *History) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("history", flag.ContinueOnError)
	c.DataFlags.SetFlags(fset)
	fset.IntVar(&c.count, "n", 10, "number of most recent runs to print; zero prints all")
	fset.BoolVar(&c.details, "details", false, "when true, prints every order outcome")
	return "history", fset, cli.CmdFunc(c.run)
}

func (c *History) Purpose() string {
	return "Prints the results of recent runs"
}

func (c *History) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	dataDir, err := c.DataDir()
	if err != nil {
		return err
	}

	unlock, err := cmdutil.LockDataDir(dataDir)
	if err != nil {
		return err
	}
	defer unlock()

	jnl, closer, err := journal.Open(filepath.Join(dataDir, "journal"))
	if err != nil {
		return err
	}
	defer closer()

	return printHistory(ctx, os.Stdout, jnl, c.count, c.details)
}

func printHistory(ctx context.Context, w io.Writer, jnl *journal.Journal, n int, details bool) error {
	recs, err := jnl.Last(ctx, n)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		status := "ok"
		if len(rec.Error) != 0 {
			status = "failed: " + rec.Error
		} else if rec.DryRun {
			status = "dry-run"
		}
		fmt.Fprintf(w, "%s %-7s selected=%d created=%d cancelled=%d abandoned=%d interrupted=%d elapsed=%s %s\n",
			rec.StartedAt.Local().Format(time.DateTime), rec.Mode, rec.Selected,
			rec.Count(refresh.Created), rec.Count(refresh.Cancelled),
			rec.Count(refresh.Abandoned), rec.Count(refresh.Interrupted),
			elapsed(rec), status)
		if !details {
			continue
		}
		for _, out := range rec.Outcomes {
			fmt.Fprintf(w, "    %-11s %s %s %s %s\n", out.State, out.Market, out.OrderID, out.NewOrderID, out.Reason)
		}
	}
	return nil
}

func elapsed(rec *journal.RunRecord) time.Duration {
	if rec.FinishedAt.IsZero() {
		return 0
	}
	return rec.FinishedAt.Sub(rec.StartedAt).Truncate(time.Millisecond)
}
