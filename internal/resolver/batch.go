// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package resolver

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/rigrun-refs/internal/mention"
)

// maxConcurrentBatches bounds ResolveAll fan-out.
const maxConcurrentBatches = 8

// ResolveAll resolves independent batches concurrently. The result has one
// outcome per batch, in input order. The first oracle fault cancels the
// batches that have not started and is returned.
func (r *Resolver) ResolveAll(ctx context.Context, batches [][]mention.Segment) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(batches))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentBatches)

	for i, batch := range batches {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := r.Resolve(batch)
			if err != nil {
				return err
			}
			outcomes[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
