// Copyright (c) 2025 BVK Chaitanya

// Package refresh implements the stale limit order refresh workflows.
//
// Every stale order is handled by an independent workflow that first cancels
// the order and waits for the exchange to report it as closed, and only then
// creates an equivalent order for the unfilled remainder. Workflows never
// create a replacement for an order whose cancellation could not be
// confirmed, so an account never holds both the old and the new order, and
// never loses an order that was successfully canceled.
//
// Exchange calls are retried at a fixed interval without a limit by default;
// operators are expected to watch the logs (or the events topic) for stuck
// workflows.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/bvk/refresher/ctxutil"
	"github.com/bvk/refresher/exchange"
	"github.com/bvk/refresher/syncmap"
	"github.com/visvasity/topic"
)

// ErrDuplicateTask is reported when a workflow is started for an order that
// already has a workflow in flight or appears twice in the input.
var ErrDuplicateTask = errors.New("duplicate task for the same order")

// BackupWriter persists a snapshot of open orders and returns the snapshot
// file name.
type BackupWriter interface {
	WriteBackup(orders []*exchange.Order, at time.Time) (string, error)
}

type Refresher struct {
	gw exchange.Gateway

	policy Policy

	backup BackupWriter

	now   func() time.Time
	sleep func(context.Context, time.Duration) error

	events *topic.Topic[*Event]

	inflight syncmap.Map[string, *task]
}

// New creates a refresher for the exchange account behind the gateway. Input
// backup writer can be nil if normal refresh mode is never used.
func New(gw exchange.Gateway, backup BackupWriter, policy *Policy) (*Refresher, error) {
	if gw == nil {
		return nil, os.ErrInvalid
	}
	p := *policy
	p.setDefaults()
	if err := p.Check(); err != nil {
		return nil, fmt.Errorf("invalid refresh policy: %w", err)
	}
	r := &Refresher{
		gw:     gw,
		policy: p,
		backup: backup,
		now:    time.Now,
		sleep:  ctxutil.Sleep,
		events: topic.New[*Event](),
	}
	return r, nil
}

// Close releases the events topic.
func (r *Refresher) Close() error {
	r.events.Close()
	return nil
}

// Events returns the topic where workflow progress events are published.
func (r *Refresher) Events() *topic.Topic[*Event] {
	return r.events
}

// Policy returns a copy of the refresh policy in use.
func (r *Refresher) Policy() Policy {
	return r.policy
}

func (r *Refresher) retryPolicy(maxAttempts int) *ctxutil.RetryPolicy {
	return &ctxutil.RetryPolicy{
		Interval:    r.policy.RetryPeriod,
		Jitter:      r.policy.RetryJitter,
		MaxAttempts: maxAttempts,
		Sleep:       r.sleep,
	}
}

func (r *Refresher) publish(kind EventKind, id string, t *task, attempt int, err error) {
	out := t.snapshot()
	r.events.Send(&Event{
		Kind:          kind,
		OrderID:       out.OrderID,
		Market:        out.Market,
		TaskID:        id,
		Attempt:       attempt,
		TaskStartedAt: out.StartedAt,
		At:            r.now(),
		Err:           err,
	})
}

// track registers a workflow as in-flight till the returned function is
// called. Returns false if another workflow with the same id is already in
// flight, in which case the new task is not registered.
func (r *Refresher) track(id string, order *exchange.Order) (*task, func(), bool) {
	t := newTask(order, r.now())
	if _, loaded := r.inflight.LoadOrStore(id, t); loaded {
		slog.Warn("another workflow for the same task id is in flight", "task-id", id)
		return t, func() {}, false
	}
	return t, func() { r.inflight.Delete(id) }, true
}

// InFlight returns a snapshot of the workflows that are not yet complete,
// oldest first.
func (r *Refresher) InFlight() []Outcome {
	var outs []Outcome
	for _, t := range r.inflight.All() {
		outs = append(outs, t.snapshot())
	}
	sort.Slice(outs, func(i, j int) bool {
		return outs[i].StartedAt.Before(outs[j].StartedAt)
	})
	return outs
}

// reportProgress logs a summary of in-flight workflows periodically till the
// context is canceled.
func (r *Refresher) reportProgress(ctx context.Context) {
	ticker := time.NewTicker(r.policy.ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			outs := r.InFlight()
			if len(outs) == 0 {
				continue
			}
			oldest := outs[0]
			slog.Info("order workflows are in progress", "in-flight", len(outs),
				"oldest-order-id", oldest.OrderID, "oldest-state", oldest.State,
				"oldest-elapsed", r.now().Sub(oldest.StartedAt).Truncate(time.Second))
		}
	}
}
