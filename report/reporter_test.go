// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/payflow/account"
	"github.com/luxfi/payflow/types"
)

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.Equal(t, "client,available,held,total,locked\n", buf.String())
}

func TestWriteRows(t *testing.T) {
	snaps := []account.Snapshot{
		{Client: 1, Available: 120000, Held: 0, Total: 120000, Locked: false},
		{Client: 3, Available: 0, Held: 0, Total: 0, Locked: true},
		{Client: 65535, Available: -5000, Held: 10000, Total: 5000, Locked: false},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, snaps))

	want := "client,available,held,total,locked\n" +
		"1,12.0000,0.0000,12.0000,false\n" +
		"3,0.0000,0.0000,0.0000,true\n" +
		"65535,-0.5000,1.0000,0.5000,false\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteFourFractionalDigits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []account.Snapshot{
		{Client: 9, Available: types.Amount(1), Held: 0, Total: types.Amount(1)},
	}))
	assert.Contains(t, buf.String(), "9,0.0001,0.0000,0.0001,false")
}
