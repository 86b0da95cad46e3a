// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/luxfi/payflow/log"
)

// RawBlock is one chunk of the input byte stream. Index is assigned in
// read order starting at 0 and drives reassembly in the reorderer. Data
// always ends on a record boundary except possibly for the final block of
// a stream whose last line has no terminator.
type RawBlock struct {
	Index uint64
	Data  []byte
}

// blockReader slices the input into blocks of roughly blockSize bytes,
// repairing boundaries so no row straddles two blocks. The CSV header is
// stripped here, before any block is emitted.
type blockReader struct {
	src       io.Reader
	blockSize int
	out       chan<- RawBlock
	metrics   *Metrics
}

// run reads until EOF or a hard I/O error. It never closes out; the
// engine cascades channel closure once run returns.
func (r *blockReader) run(ctx context.Context) error {
	var (
		carry      []byte // bytes after the last terminator of the previous read
		index      uint64
		headerDone bool
	)
	buf := make([]byte, r.blockSize)

	for {
		n, err := r.src.Read(buf)
		if n > 0 {
			r.metrics.BytesRead.Add(float64(n))
			chunk := append(carry, buf[:n]...)

			if !headerDone {
				nl := bytes.IndexByte(chunk, '\n')
				if nl < 0 {
					// Header longer than a block; keep accumulating.
					carry = chunk
					continue
				}
				chunk = chunk[nl+1:]
				headerDone = true
			}

			cut := bytes.LastIndexByte(chunk, '\n')
			if cut < 0 {
				carry = chunk
			} else {
				block := chunk[:cut+1]
				carry = append([]byte(nil), chunk[cut+1:]...)
				if err := r.emit(ctx, RawBlock{Index: index, Data: block}); err != nil {
					return err
				}
				index++
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	// A missing trailing newline still terminates the final record.
	if headerDone && len(carry) > 0 {
		if err := r.emit(ctx, RawBlock{Index: index, Data: carry}); err != nil {
			return err
		}
		index++
	}
	log.Debug("reader finished", "blocks", index)
	return nil
}

func (r *blockReader) emit(ctx context.Context, blk RawBlock) error {
	select {
	case r.out <- blk:
		r.metrics.BlocksRead.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
