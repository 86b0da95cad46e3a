// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine implements the streaming transaction pipeline: a block
// reader, a parallel parser pool, an order-restoring reorderer, a
// dispatcher, and sharded account workers. Data flows one way through
// bounded channels; back-pressure from any stage throttles the reader.
package engine

import (
	"context"
	"errors"
	"io"
	"runtime"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/payflow/account"
	"github.com/luxfi/payflow/log"
	"github.com/luxfi/payflow/types"
)

// DefaultBlockSize is the reader's chunk size before boundary repair.
const DefaultBlockSize = 64 * 1024

var errAlreadyRan = errors.New("engine already ran")

// Config sizes the pipeline. Zero values pick defaults; negative values
// are rejected by New.
type Config struct {
	// BlockSize is the reader chunk size in bytes.
	BlockSize int
	// Parsers is the number of parallel parse workers.
	Parsers int
	// Shards is the number of account workers; accounts are owned by
	// shard client mod Shards for the whole run.
	Shards int
	// ChannelDepth bounds every inter-stage channel.
	ChannelDepth int
}

func (c Config) withDefaults() Config {
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.Parsers == 0 {
		c.Parsers = runtime.GOMAXPROCS(0)
	}
	if c.Shards == 0 {
		c.Shards = c.Parsers
	}
	if c.ChannelDepth == 0 {
		c.ChannelDepth = 4 * c.Parsers
	}
	return c
}

func (c Config) validate() error {
	switch {
	case c.BlockSize < 0:
		return errors.New("block size must not be negative")
	case c.Parsers < 0:
		return errors.New("parser count must not be negative")
	case c.Shards < 0:
		return errors.New("shard count must not be negative")
	case c.ChannelDepth < 0:
		return errors.New("channel depth must not be negative")
	}
	return nil
}

// Engine is a single-use pipeline: construct, Run once, read Snapshots.
type Engine struct {
	cfg     Config
	metrics *Metrics

	mu     sync.Mutex
	ran    bool
	shards []*shard
}

// New builds an engine. reg may be nil to skip metric registration.
func New(cfg Config, reg prometheus.Registerer) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	m, err := NewMetrics(reg)
	if err != nil {
		return nil, err
	}
	e := &Engine{cfg: cfg, metrics: m}
	e.shards = make([]*shard, cfg.Shards)
	for i := range e.shards {
		e.shards[i] = newShard(i, cfg.ChannelDepth, m)
	}
	return e, nil
}

// Run drives the whole pipeline over src until EOF or a fatal error.
// Every stage drains its inbound channel before exiting, so even on a
// mid-stream reader failure the records already emitted are fully
// applied and Snapshots reflects them.
func (e *Engine) Run(ctx context.Context, src io.Reader) error {
	e.mu.Lock()
	if e.ran {
		e.mu.Unlock()
		return errAlreadyRan
	}
	e.ran = true
	e.mu.Unlock()

	var (
		blocks  = make(chan RawBlock, e.cfg.ChannelDepth)
		batches = make(chan ParsedBatch, e.cfg.ChannelDepth)
		records = make(chan types.Record, e.cfg.ChannelDepth)
	)

	log.Info("starting pipeline",
		"blockSize", e.cfg.BlockSize,
		"parsers", e.cfg.Parsers,
		"shards", e.cfg.Shards,
		"channelDepth", e.cfg.ChannelDepth,
	)

	var g errgroup.Group

	rd := &blockReader{src: src, blockSize: e.cfg.BlockSize, out: blocks, metrics: e.metrics}
	g.Go(func() error {
		defer close(blocks)
		return rd.run(ctx)
	})

	pool := &parserPool{workers: e.cfg.Parsers, in: blocks, out: batches, metrics: e.metrics}
	var parsers sync.WaitGroup
	for i := 0; i < pool.workers; i++ {
		parsers.Add(1)
		g.Go(func() error {
			defer parsers.Done()
			return pool.runWorker(ctx)
		})
	}
	g.Go(func() error {
		parsers.Wait()
		close(batches)
		return nil
	})

	ro := &reorderer{in: batches, out: records}
	g.Go(func() error {
		defer close(records)
		return ro.run(ctx)
	})

	inboxes := make([]chan types.Record, len(e.shards))
	for i, s := range e.shards {
		inboxes[i] = s.in
	}
	disp := &dispatcher{in: records, shards: inboxes}
	g.Go(func() error {
		defer func() {
			for _, inbox := range inboxes {
				close(inbox)
			}
		}()
		return disp.run(ctx)
	})

	for _, s := range e.shards {
		s := s
		g.Go(s.run)
	}

	err := g.Wait()
	if err != nil {
		log.Error("pipeline failed", "err", err)
	} else {
		log.Debug("pipeline drained")
	}
	return err
}

// Snapshots returns the final state of every account seen during the
// run, in ascending client order. Call only after Run has returned.
func (e *Engine) Snapshots() []account.Snapshot {
	var out []account.Snapshot
	for _, s := range e.shards {
		out = append(out, s.snapshots()...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client < out[j].Client })
	return out
}
