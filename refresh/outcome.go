// Copyright (c) 2025 BVK Chaitanya

package refresh

import (
	"sync"
	"time"

	"github.com/bvk/refresher/exchange"
)

// State is the lifecycle state of an order workflow.
type State string

const (
	CancelRequested State = "cancel-requested"
	CancelConfirmed State = "cancel-confirmed"
	CreateRequested State = "create-requested"

	// Terminal states.
	Created     State = "created"
	Cancelled   State = "cancelled"
	Abandoned   State = "abandoned"
	Interrupted State = "interrupted"
)

// IsTerminal returns true if no further transitions are possible.
func (s State) IsTerminal() bool {
	return s == Created || s == Cancelled || s == Abandoned || s == Interrupted
}

// Outcome is the result of one order workflow.
type Outcome struct {
	OrderID    exchange.OrderID
	NewOrderID exchange.OrderID

	Market    string
	OrderType exchange.OrderType

	State State

	// Reason describes why a workflow was abandoned or interrupted.
	Reason string

	CancelPolls    int
	CreateAttempts int

	StartedAt  time.Time
	FinishedAt time.Time
}

// task tracks an in-flight workflow. Fields are updated by the workflow
// goroutine and read concurrently by the progress reporter.
type task struct {
	mu sync.Mutex

	out Outcome
}

func newTask(order *exchange.Order, now time.Time) *task {
	return &task{
		out: Outcome{
			OrderID:   order.OrderID,
			Market:    order.Market,
			OrderType: order.OrderType,
			StartedAt: now,
		},
	}
}

func (t *task) setState(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.State = s
}

func (t *task) update(f func(*Outcome)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f(&t.out)
}

func (t *task) snapshot() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out
}

// finish moves the task into a terminal state and returns the final outcome.
func (t *task) finish(s State, reason string, now time.Time) *Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.out.State = s
	t.out.Reason = reason
	t.out.FinishedAt = now
	out := t.out
	return &out
}
