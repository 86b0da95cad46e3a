// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"context"

	"github.com/luxfi/payflow/types"
)

// dispatcher routes the ordered record stream to shard inboxes keyed by
// client mod M. Being single-threaded, it preserves per-shard arrival
// order for free, which is all the shards need for per-client sequential
// consistency.
type dispatcher struct {
	in     <-chan types.Record
	shards []chan types.Record
}

func (d *dispatcher) run(ctx context.Context) error {
	n := uint64(len(d.shards))
	for rec := range d.in {
		inbox := d.shards[uint64(rec.Client)%n]
		select {
		case inbox <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
