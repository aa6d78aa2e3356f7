// Copyright (c) 2025 BVK Chaitanya

package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/bvk/refresher/refresh"
	"github.com/visvasity/topic"
)

// Watchdog sends one notification for every order workflow that keeps
// retrying exchange operations for longer than a threshold.
type Watchdog struct {
	notifier   Notifier
	alertAfter time.Duration

	// alerted holds the task ids that have already sent an alert.
	alerted map[string]struct{}
}

// NewWatchdog creates a watchdog. Zero alertAfter defaults to 30 minutes.
func NewWatchdog(n Notifier, alertAfter time.Duration) *Watchdog {
	if alertAfter <= 0 {
		alertAfter = 30 * time.Minute
	}
	return &Watchdog{
		notifier:   n,
		alertAfter: alertAfter,
		alerted:    make(map[string]struct{}),
	}
}

// Watch receives workflow events from the topic until the context is
// canceled or the topic is closed.
func (w *Watchdog) Watch(ctx context.Context, events *topic.Topic[*refresh.Event]) error {
	receiver, err := topic.Subscribe(events, 0, false)
	if err != nil {
		return err
	}
	defer receiver.Close()

	eventsCh, err := topic.ReceiveCh(receiver)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)

		case e, ok := <-eventsCh:
			if !ok {
				return nil
			}
			w.handle(ctx, e)
		}
	}
}

func (w *Watchdog) handle(ctx context.Context, e *refresh.Event) {
	if e.Kind.IsFinal() {
		delete(w.alerted, e.TaskID)
		return
	}
	if !e.Kind.IsRetry() {
		return
	}
	if _, ok := w.alerted[e.TaskID]; ok {
		return
	}
	stuck := e.At.Sub(e.TaskStartedAt)
	if stuck < w.alertAfter {
		return
	}
	w.alerted[e.TaskID] = struct{}{}
	slog.Warn("order workflow is stuck retrying", "task", e.TaskID, "order", e.OrderID, "market", e.Market, "event", e.Kind, "attempt", e.Attempt, "stuck-for", stuck)
	Sendf(ctx, w.notifier, e.At,
		"Order workflow %s for market %s is retrying (%s, attempt %d) for %s.",
		e.TaskID, e.Market, e.Kind, e.Attempt, stuck.Round(time.Second))
}
