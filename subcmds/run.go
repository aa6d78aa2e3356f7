// Copyright (c) 2023 BVK Chaitanya

package subcmds

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bvk/refresher/backup"
	"github.com/bvk/refresher/bittrex"
	"github.com/bvk/refresher/config"
	"github.com/bvk/refresher/journal"
	"github.com/bvk/refresher/metrics"
	"github.com/bvk/refresher/notify"
	"github.com/bvk/refresher/refresh"
	"github.com/bvk/refresher/subcmds/cmdutil"
	"github.com/robfig/cron/v3"
	"github.com/visvasity/cli"
)

type Run struct {
	cmdutil.DataFlags
	cmdutil.LogFlags

	dryRun bool

	purgeOpenOrders bool
	restoreOrders   string

	schedule string
}

func (c *Run) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("run", flag.ContinueOnError)
	c.DataFlags.SetFlags(fset)
	c.LogFlags.SetFlags(fset)
	fset.BoolVar(&c.dryRun, "dry-run", false, "when true, only reports the stale orders")
	fset.BoolVar(&c.purgeOpenOrders, "purge-open-orders", false, "cancels all open limit orders without replacing them")
	fset.StringVar(&c.restoreOrders, "restore-orders", "", "path to a backup file with the orders to recreate")
	fset.StringVar(&c.schedule, "schedule", "", "cron schedule to repeat the refresh (ex: @daily)")
	return "run", fset, cli.CmdFunc(c.run)
}

func (c *Run) Purpose() string {
	return "Replaces stale open orders with fresh copies"
}

func (c *Run) Description() string {
	return `

Command "run" lists the open orders in the exchange account, saves a backup
of all limit orders and replaces the orders older than maxOrderAgeDays with
new orders for the same market, side, remaining quantity and limit price.

Flag -purge-open-orders cancels all open limit orders without creating
replacements. Flag -restore-orders creates the orders listed in a backup file.
These flags are mutually exclusive and cannot be used with -schedule.

CONFIG FILE

Configuration is read from <data-dir>/config.yaml by default. JSON files are
also accepted. Values can be overridden with REFRESHER_<NAME> environment
variables or a .refresher.env file in the data or home directory.

    credentials:
      key: "1111111111"
      secret: "2222222222"
    retryPeriodMs: 10000
    concurrentTasks: 2
    maxOrderAgeDays: 27
    replaceAllOrders: false
    backupFile: "backups/orders-%s.json"

`
}

func (c *Run) request() (*refresh.Request, error) {
	if c.purgeOpenOrders && len(c.restoreOrders) != 0 {
		return nil, fmt.Errorf("flags -purge-open-orders and -restore-orders are mutually exclusive")
	}
	if len(c.schedule) != 0 && (c.purgeOpenOrders || len(c.restoreOrders) != 0) {
		return nil, fmt.Errorf("flag -schedule cannot be used with the recovery flags")
	}
	if c.purgeOpenOrders {
		return &refresh.Request{Mode: refresh.PurgeMode}, nil
	}
	if len(c.restoreOrders) != 0 {
		orders, err := backup.Read(c.restoreOrders)
		if err != nil {
			return nil, err
		}
		return &refresh.Request{Mode: refresh.RestoreMode, Orders: orders}, nil
	}
	return &refresh.Request{Mode: refresh.RefreshMode}, nil
}

func (c *Run) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("this command takes no arguments")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	req, err := c.request()
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

	writer, err := backup.NewWriter(dataDir, cfg.BackupFile)
	if err != nil {
		return err
	}
	refresher, err := refresh.New(client, writer, cfg.Policy(c.dryRun))
	if err != nil {
		return err
	}
	defer refresher.Close()

	jnl, closer, err := journal.Open(filepath.Join(dataDir, "journal"))
	if err != nil {
		return err
	}
	defer closer()

	notifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	if notifier != nil {
		watchdog := notify.NewWatchdog(notifier, cfg.StuckTaskAlertAfter)
		go func() {
			if err := watchdog.Watch(ctx, refresher.Events()); err != nil && ctx.Err() == nil {
				slog.Warn("stuck task watchdog has stopped", "err", err)
			}
		}()
	}

	r := &runner{
		refresher:      refresher,
		journal:        jnl,
		recorder:       metrics.New(),
		notifier:       notifier,
		pushgatewayURL: cfg.PushgatewayURL,
		historySize:    cfg.HistorySize,
		stdout:         os.Stdout,
	}

	slog.Info("starting order refresher", "mode", req.Mode, "data-dir", dataDir, "dry-run", c.dryRun, "schedule", c.schedule)
	if len(c.schedule) != 0 {
		err = c.runScheduled(ctx, r)
	} else {
		_, err = r.runOnce(ctx, req)
	}
	if err == nil && ctx.Err() != nil {
		err = cmdutil.ErrInterrupted
	}
	if errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%w: %v", cmdutil.ErrInterrupted, err)
	}
	return err
}

// runScheduled repeats the refresh on the cron schedule until the context is
// canceled. Runs that are still in progress when the next one is due are
// skipped.
func (c *Run) runScheduled(ctx context.Context, r *runner) error {
	schedule, err := cron.ParseStandard(c.schedule)
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", c.schedule, err)
	}

	cr := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	cr.Schedule(schedule, cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := r.runOnce(ctx, &refresh.Request{Mode: refresh.RefreshMode}); err != nil {
			slog.Error("scheduled refresh has failed", "err", err)
		}
	}))

	cr.Start()
	slog.Info("waiting for the scheduled refresh", "schedule", c.schedule, "next", schedule.Next(time.Now()))
	<-ctx.Done()
	<-cr.Stop().Done()
	return nil
}

func newNotifier(cfg *config.Config) (notify.Notifier, error) {
	var multi notify.Multi
	if cfg.Telegram != nil {
		tg, err := notify.NewTelegram(cfg.Telegram)
		if err != nil {
			return nil, err
		}
		multi = append(multi, tg)
	}
	if cfg.Pushover != nil {
		po, err := notify.NewPushover(cfg.Pushover, "")
		if err != nil {
			return nil, err
		}
		multi = append(multi, po)
	}
	if len(multi) == 0 {
		return nil, nil
	}
	return multi, nil
}
