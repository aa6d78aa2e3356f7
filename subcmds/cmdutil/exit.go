// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"context"
	"errors"
)

// ErrInterrupted is returned by commands stopped by a signal.
var ErrInterrupted = errors.New("interrupted by signal")

// Process exit codes.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitInterrupted = 130
)

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrInterrupted), errors.Is(err, context.Canceled):
		return ExitInterrupted
	default:
		return ExitFailure
	}
}
