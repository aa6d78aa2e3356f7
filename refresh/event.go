// Copyright (c) 2025 BVK Chaitanya

package refresh

import (
	"time"

	"github.com/bvk/refresher/exchange"
)

type EventKind string

const (
	CancelRejected EventKind = "cancel-rejected"
	CancelPending  EventKind = "cancel-pending"
	StatusFailed   EventKind = "status-failed"
	CreateFailed   EventKind = "create-failed"

	OrderReplaced  EventKind = "replaced"
	OrderCancelled EventKind = "cancelled"
	OrderCreated   EventKind = "created"
	TaskAbandoned  EventKind = "abandoned"
)

// IsRetry returns true for events that indicate the workflow is going to
// retry an exchange operation.
func (k EventKind) IsRetry() bool {
	return k == CancelPending || k == StatusFailed || k == CreateFailed
}

// IsFinal returns true for events published when a workflow completes.
func (k EventKind) IsFinal() bool {
	return k == OrderReplaced || k == OrderCancelled || k == OrderCreated || k == TaskAbandoned || k == CancelRejected
}

// Event is a workflow progress notification published on the Refresher's
// events topic.
type Event struct {
	Kind EventKind

	OrderID exchange.OrderID
	Market  string

	// TaskID identifies the workflow; it is the order id for cancellations
	// and replacements and a per-run sequence label for order creations.
	TaskID string

	Attempt int

	TaskStartedAt time.Time
	At            time.Time

	Err error
}
