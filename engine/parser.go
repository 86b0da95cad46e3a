// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"bytes"
	"context"
	"strconv"

	"github.com/luxfi/payflow/log"
	"github.com/luxfi/payflow/types"
)

// ParsedBatch carries one block's worth of records, still tagged with the
// block index so the reorderer can reassemble input order. Records inside
// a batch are in intra-block order; Seq is assigned later.
type ParsedBatch struct {
	Index   uint64
	Records []types.Record
}

// parserPool converts raw blocks into record batches on a fixed number of
// worker goroutines. Workers share nothing but the channels and the
// metric counters, so blocks parse fully in parallel.
type parserPool struct {
	workers int
	in      <-chan RawBlock
	out     chan<- ParsedBatch
	metrics *Metrics
}

// runWorker drains the block channel. Called once per worker goroutine;
// the engine closes out after all workers return.
func (p *parserPool) runWorker(ctx context.Context) error {
	for blk := range p.in {
		batch := ParsedBatch{
			Index:   blk.Index,
			Records: parseBlock(blk.Data, p.metrics),
		}
		select {
		case p.out <- batch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// parseBlock splits a block into lines and parses each. Malformed rows
// are counted and dropped; they never stop the pipeline.
func parseBlock(data []byte, m *Metrics) []types.Record {
	records := make([]types.Record, 0, bytes.Count(data, []byte{'\n'})+1)
	for len(data) > 0 {
		var line []byte
		if nl := bytes.IndexByte(data, '\n'); nl >= 0 {
			line, data = data[:nl], data[nl+1:]
		} else {
			line, data = data, nil
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		rec, reason := parseLine(line)
		if reason != "" {
			m.RowsDropped.WithLabelValues(reason).Inc()
			if log.Enabled(log.LevelTrace) {
				log.Trace("dropping malformed row", "reason", reason, "row", string(line))
			}
			continue
		}
		m.RowsParsed.Inc()
		records = append(records, rec)
	}
	return records
}

// parseLine parses one CSV row of the shape "type, client, tx, amount".
// The reason string is empty on success and names the first failing
// column otherwise.
func parseLine(line []byte) (types.Record, string) {
	var fields [4][]byte
	n := 0
	for n < 4 {
		comma := bytes.IndexByte(line, ',')
		if comma < 0 {
			fields[n] = bytes.TrimSpace(line)
			n++
			line = nil
			break
		}
		fields[n] = bytes.TrimSpace(line[:comma])
		line = line[comma+1:]
		n++
	}
	if line != nil {
		// Anything left after four fields means too many columns.
		return types.Record{}, "columns"
	}
	if n < 3 {
		return types.Record{}, "columns"
	}

	var rec types.Record
	switch string(fields[0]) {
	case "deposit":
		rec.Kind = types.Deposit
	case "withdrawal":
		rec.Kind = types.Withdrawal
	case "dispute":
		rec.Kind = types.Dispute
	case "resolve":
		rec.Kind = types.Resolve
	case "chargeback":
		rec.Kind = types.Chargeback
	default:
		return types.Record{}, "kind"
	}

	client, err := strconv.ParseUint(string(fields[1]), 10, 16)
	if err != nil {
		return types.Record{}, "client"
	}
	rec.Client = uint16(client)

	tx, err := strconv.ParseUint(string(fields[2]), 10, 32)
	if err != nil {
		return types.Record{}, "tx"
	}
	rec.Tx = uint32(tx)

	amountField := fields[3]
	if rec.Kind.HasAmount() {
		if n < 4 || len(amountField) == 0 {
			return types.Record{}, "amount"
		}
		amount, err := types.ParseAmount(string(amountField))
		if err != nil {
			return types.Record{}, "amount"
		}
		rec.Amount = amount
	} else if n == 4 && len(amountField) != 0 {
		// An amount on a dispute-family row is the wrong arity for the
		// kind.
		return types.Record{}, "arity"
	}
	return rec, ""
}
