// Copyright (c) 2025 BVK Chaitanya

package refresh

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Batch runs the input workflow function over all items with at most n
// workflows in flight at any time. A finished workflow's slot is taken by the
// next pending item immediately. Returns after every workflow has completed,
// with the outcomes in the same order as the input items.
//
// Items are always handed to the workflow function, even after the context
// is canceled; workflow functions are expected to report such items as
// interrupted without issuing any exchange calls.
func Batch[T any](ctx context.Context, n int, items []T, fn func(context.Context, T) *Outcome) []*Outcome {
	outs := make([]*Outcome, len(items))
	if len(items) == 0 {
		return outs
	}

	var g errgroup.Group
	g.SetLimit(max(n, 1))
	for i, item := range items {
		g.Go(func() error {
			outs[i] = fn(ctx, item)
			return nil
		})
	}
	g.Wait()
	return outs
}
