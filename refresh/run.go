// Copyright (c) 2025 BVK Chaitanya

package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bvk/refresher/exchange"
)

type Mode string

const (
	RefreshMode Mode = "refresh"
	PurgeMode   Mode = "purge"
	RestoreMode Mode = "restore"
)

// Request selects the workflow for one run.
type Request struct {
	Mode Mode

	// Orders holds the backup snapshot entries to recreate in the restore
	// mode. Must be empty for the other modes.
	Orders []*exchange.Order
}

// Report summarizes one run.
type Report struct {
	Mode   Mode
	DryRun bool

	StartedAt  time.Time
	FinishedAt time.Time

	// OpenOrders and LimitOrders are the number of orders in the open orders
	// list and the number of limit orders among them.
	OpenOrders  int
	LimitOrders int

	// Selected is the number of orders picked for processing.
	Selected int

	// BackupFile is the snapshot file name in the refresh mode.
	BackupFile string

	Outcomes []*Outcome
}

// Count returns the number of outcomes in the given state.
func (v *Report) Count(s State) int {
	n := 0
	for _, out := range v.Outcomes {
		if out.State == s {
			n++
		}
	}
	return n
}

// Refresh replaces all stale open orders. A backup snapshot of the open limit
// orders is written before any order is canceled.
func (r *Refresher) Refresh(ctx context.Context) (*Report, error) {
	return r.Run(ctx, &Request{Mode: RefreshMode})
}

// Purge cancels all open limit orders.
func (r *Refresher) Purge(ctx context.Context) (*Report, error) {
	return r.Run(ctx, &Request{Mode: PurgeMode})
}

// Restore creates a new order for every backup snapshot entry. Input entries
// are validated before any order is created.
func (r *Refresher) Restore(ctx context.Context, orders []*exchange.Order) (*Report, error) {
	return r.Run(ctx, &Request{Mode: RestoreMode, Orders: orders})
}

// Run executes exactly one of the refresh, purge or restore workflows.
//
// Returns an error only for the top-level failures, i.e., when the open
// orders cannot be listed, the backup cannot be written or the request is
// invalid; in which case no order is touched. Failures in individual order
// workflows are reported through the outcomes.
func (r *Refresher) Run(ctx context.Context, req *Request) (*Report, error) {
	switch req.Mode {
	case RefreshMode, PurgeMode:
		if len(req.Orders) != 0 {
			return nil, fmt.Errorf("%s mode cannot take input orders: %w", req.Mode, os.ErrInvalid)
		}
		if req.Mode == RefreshMode && r.backup == nil && !r.policy.DryRun {
			return nil, fmt.Errorf("refresh mode requires a backup writer: %w", os.ErrInvalid)
		}
	case RestoreMode:
		if err := checkRestoreOrders(req.Orders); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown run mode %q: %w", req.Mode, os.ErrInvalid)
	}

	report := &Report{
		Mode:      req.Mode,
		DryRun:    r.policy.DryRun,
		StartedAt: r.now(),
	}

	orders, err := r.gw.ListOpenOrders(ctx)
	if err != nil {
		slog.Error("could not list open orders", "err", err)
		return nil, fmt.Errorf("could not list open orders: %w", err)
	}
	limits := exchange.LimitOrders(orders)
	report.OpenOrders = len(orders)
	report.LimitOrders = len(limits)
	slog.Info("fetched open orders", "mode", req.Mode, "open-orders", len(orders), "limit-orders", len(limits))

	var selected []*exchange.Order
	var workflow func(context.Context, *exchange.Order) *Outcome
	switch req.Mode {
	case PurgeMode:
		selected, workflow = limits, r.CancelOnly

	case RestoreMode:
		selected, workflow = req.Orders, r.CreateOnly

	case RefreshMode:
		if !r.policy.DryRun {
			file, err := r.backup.WriteBackup(limits, report.StartedAt)
			if err != nil {
				slog.Error("could not write open orders backup", "err", err)
				return nil, fmt.Errorf("could not write backup: %w", err)
			}
			report.BackupFile = file
			slog.Info("saved open orders backup", "file", file, "limit-orders", len(limits))
		}
		selected, workflow = r.SelectStale(orders, report.StartedAt), r.Replace
	}
	report.Selected = len(selected)

	if r.policy.DryRun {
		for _, order := range selected {
			slog.Info("order is selected (dry-run)", "mode", req.Mode, "order", order)
		}
		report.FinishedAt = r.now()
		return report, nil
	}

	slog.Info("processing orders", "mode", req.Mode, "selected", len(selected), "concurrent-tasks", r.policy.ConcurrentTasks)

	pctx, pcancel := context.WithCancel(ctx)
	defer pcancel()
	go r.reportProgress(pctx)

	report.Outcomes = Batch(ctx, r.policy.ConcurrentTasks, selected, workflow)
	report.FinishedAt = r.now()

	slog.Info("finished processing orders", "mode", req.Mode, "selected", len(selected),
		"created", report.Count(Created), "cancelled", report.Count(Cancelled),
		"abandoned", report.Count(Abandoned), "interrupted", report.Count(Interrupted),
		"elapsed", report.FinishedAt.Sub(report.StartedAt).Truncate(time.Millisecond))
	return report, nil
}

func checkRestoreOrders(orders []*exchange.Order) error {
	seen := make(map[exchange.OrderID]int)
	for i, order := range orders {
		if j, ok := seen[order.OrderID]; ok {
			return fmt.Errorf("restore entries %d and %d (%s): %w", j, i, order.OrderID, ErrDuplicateTask)
		}
		seen[order.OrderID] = i
		if !order.OrderType.IsLimit() {
			return fmt.Errorf("restore entry %d (%s): %w: %q", i, order.OrderID, exchange.ErrUnsupportedOrderType, order.OrderType)
		}
		if err := order.Replacement().Check(); err != nil {
			return fmt.Errorf("restore entry %d (%s): %w", i, order.OrderID, err)
		}
	}
	return nil
}
