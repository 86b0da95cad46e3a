// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"context"

	"github.com/luxfi/payflow/log"
	"github.com/luxfi/payflow/types"
)

// reorderer restores global input order across the parser pool. Batches
// arrive keyed by block index in whatever order the workers finish;
// records leave in strictly increasing block index, numbered with a dense
// Seq the reorderer owns. With P parser workers the pending map holds
// about P batches in steady state; it is not capped, so while one block's
// parse lags, later batches keep accumulating.
type reorderer struct {
	in  <-chan ParsedBatch
	out chan<- types.Record
}

func (r *reorderer) run(ctx context.Context) error {
	var (
		next    uint64 // next expected block index
		seq     uint64 // next sequence number to hand out
		pending = make(map[uint64]ParsedBatch)
	)
	for batch := range r.in {
		if batch.Index < next {
			// Block indices are unique; this would mean the reader
			// emitted a duplicate.
			log.Error("dropping duplicate block", "index", batch.Index, "next", next)
			continue
		}
		pending[batch.Index] = batch
		for {
			head, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			for i := range head.Records {
				head.Records[i].Seq = seq
				seq++
				select {
				case r.out <- head.Records[i]:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			next++
		}
	}
	// After the parsers exit every produced block has arrived, even after
	// a reader failure, so the pending map is empty unless a parser worker
	// quit early on context cancellation. The contiguous prefix has
	// already been emitted; batches past the gap are not.
	if len(pending) > 0 {
		log.Warn("input truncated; discarding out-of-order tail", "buffered", len(pending), "next", next)
	}
	return nil
}
