// Copyright (c) 2025 BVK Chaitanya

// Package notify sends operator notifications.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type Notifier interface {
	SendMessage(ctx context.Context, at time.Time, msg string) error
}

// Multi sends messages through all notifiers.
type Multi []Notifier

// SendMessage sends the message to all notifiers and returns the combined
// errors.
func (m Multi) SendMessage(ctx context.Context, at time.Time, msg string) error {
	var errs []error
	for _, n := range m {
		if err := n.SendMessage(ctx, at, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Sendf formats and sends a message, logging failures.
func Sendf(ctx context.Context, n Notifier, at time.Time, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	slog.Info("sending notification", "at", at, "message", msg)
	if err := n.SendMessage(ctx, at, msg); err != nil {
		slog.Warn("could not send notification (ignored)", "err", err)
	}
}
