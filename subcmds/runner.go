// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/bvk/refresher/journal"
	"github.com/bvk/refresher/metrics"
	"github.com/bvk/refresher/notify"
	"github.com/bvk/refresher/refresh"
)

// runner performs one refresher run and saves its results in the journal,
// the metrics and the notification channels.
type runner struct {
	refresher *refresh.Refresher
	journal   *journal.Journal
	recorder  *metrics.Recorder

	// notifier is nil when no notification channel is configured.
	notifier notify.Notifier

	pushgatewayURL string

	historySize int

	stdout io.Writer
}

func (r *runner) runOnce(ctx context.Context, req *refresh.Request) (*refresh.Report, error) {
	start := time.Now()
	report, runErr := r.refresher.Run(ctx, req)

	// Results are saved even when the run is interrupted.
	sctx := context.WithoutCancel(ctx)

	rec := journal.NewRunRecord(req.Mode, start, report, runErr)
	if err := r.journal.Append(sctx, rec); err != nil {
		slog.Warn("could not save run record (ignored)", "err", err)
	} else if n, err := r.journal.Prune(sctx, r.historySize); err != nil {
		slog.Warn("could not prune old run records (ignored)", "err", err)
	} else if n > 0 {
		slog.Debug("pruned old run records", "count", n)
	}

	r.recorder.Record(req.Mode, report, runErr)
	if len(r.pushgatewayURL) != 0 {
		pctx, cancel := context.WithTimeout(sctx, 30*time.Second)
		if err := r.recorder.Push(pctx, r.pushgatewayURL); err != nil {
			slog.Warn("could not push metrics (ignored)", "err", err)
		}
		cancel()
	}

	if r.notifier != nil {
		if msg := summaryMessage(req.Mode, report, runErr); len(msg) != 0 {
			notify.Sendf(sctx, r.notifier, time.Now(), "%s", msg)
		}
	}

	if report != nil {
		printReport(r.stdout, report)
	}
	return report, runErr
}

// summaryMessage returns the notification text for runs that need operator
// attention or an empty string.
func summaryMessage(mode refresh.Mode, report *refresh.Report, runErr error) string {
	if runErr != nil {
		return fmt.Sprintf("Order refresher %s run has failed: %v", mode, runErr)
	}
	if report == nil || report.DryRun {
		return ""
	}
	abandoned, interrupted := report.Count(refresh.Abandoned), report.Count(refresh.Interrupted)
	if abandoned == 0 && interrupted == 0 {
		return ""
	}
	return fmt.Sprintf("Order refresher %s run finished with %d abandoned and %d interrupted orders out of %d; see the logs for the order details.",
		mode, abandoned, interrupted, report.Selected)
}

func printReport(w io.Writer, report *refresh.Report) {
	fmt.Fprintf(w, "mode %s: %d open orders, %d limit orders, %d selected", report.Mode, report.OpenOrders, report.LimitOrders, report.Selected)
	if report.DryRun {
		fmt.Fprintf(w, " (dry-run)\n")
		return
	}
	fmt.Fprintln(w)
	if len(report.BackupFile) != 0 {
		fmt.Fprintf(w, "backup: %s\n", report.BackupFile)
	}
	for _, out := range report.Outcomes {
		switch out.State {
		case refresh.Created:
			if len(out.OrderID) != 0 {
				fmt.Fprintf(w, "%s %s %s -> %s\n", out.State, out.Market, out.OrderID, out.NewOrderID)
			} else {
				fmt.Fprintf(w, "%s %s %s\n", out.State, out.Market, out.NewOrderID)
			}
		case refresh.Abandoned, refresh.Interrupted:
			fmt.Fprintf(w, "%s %s %s: %s\n", out.State, out.Market, out.OrderID, out.Reason)
		default:
			fmt.Fprintf(w, "%s %s %s\n", out.State, out.Market, out.OrderID)
		}
	}
}
