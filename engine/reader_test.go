// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readBlocks runs a blockReader to completion and returns what it
// emitted. The out channel is buffered generously so the reader never
// blocks in these tests.
func readBlocks(t *testing.T, input string, blockSize int) []RawBlock {
	t.Helper()
	m, err := NewMetrics(nil)
	require.NoError(t, err)
	out := make(chan RawBlock, 1024)
	r := &blockReader{src: strings.NewReader(input), blockSize: blockSize, out: out, metrics: m}
	require.NoError(t, r.run(context.Background()))
	close(out)
	var blocks []RawBlock
	for blk := range out {
		blocks = append(blocks, blk)
	}
	return blocks
}

func joinBlocks(blocks []RawBlock) string {
	var sb strings.Builder
	for _, blk := range blocks {
		sb.Write(blk.Data)
	}
	return sb.String()
}

func TestReaderStripsHeaderAndRepairsBoundaries(t *testing.T) {
	const header = "type,client,tx,amount\n"
	body := "deposit,1,1,10.0\nwithdrawal,1,2,3.0\ndispute,1,1,\nresolve,1,1,\n"

	for _, blockSize := range []int{1, 2, 3, 7, 16, 64, 4096} {
		blocks := readBlocks(t, header+body, blockSize)
		assert.Equal(t, body, joinBlocks(blocks), "blockSize=%d", blockSize)
		for i, blk := range blocks {
			assert.Equal(t, uint64(i), blk.Index, "blockSize=%d", blockSize)
			assert.NotEmpty(t, blk.Data, "blockSize=%d", blockSize)
			// Boundary repair: every block ends on a record terminator.
			assert.Equal(t, byte('\n'), blk.Data[len(blk.Data)-1], "blockSize=%d", blockSize)
		}
	}
}

func TestReaderNoTrailingNewline(t *testing.T) {
	input := "type,client,tx,amount\ndeposit,1,1,1.0\ndeposit,2,2,2.0"
	blocks := readBlocks(t, input, 8)
	assert.Equal(t, "deposit,1,1,1.0\ndeposit,2,2,2.0", joinBlocks(blocks))
}

func TestReaderCRLFPassesThrough(t *testing.T) {
	input := "type,client,tx,amount\r\ndeposit,1,1,1.0\r\ndeposit,2,2,2.0\r\n"
	blocks := readBlocks(t, input, 10)
	assert.Equal(t, "deposit,1,1,1.0\r\ndeposit,2,2,2.0\r\n", joinBlocks(blocks))
}

func TestReaderHeaderOnly(t *testing.T) {
	assert.Empty(t, readBlocks(t, "type,client,tx,amount\n", 64))
	assert.Empty(t, readBlocks(t, "type,client,tx,amount", 64))
}

func TestReaderEmptyInput(t *testing.T) {
	assert.Empty(t, readBlocks(t, "", 64))
}

func TestReaderHeaderLongerThanBlock(t *testing.T) {
	input := "type,client,tx,amount\ndeposit,1,1,1.0\n"
	blocks := readBlocks(t, input, 4)
	assert.Equal(t, "deposit,1,1,1.0\n", joinBlocks(blocks))
}
