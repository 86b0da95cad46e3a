// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package report renders final account state as CSV.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/luxfi/payflow/account"
)

const header = "client,available,held,total,locked"

// Write emits the report for the given snapshots in the order provided;
// the engine hands them over already sorted by client. Amounts carry
// exactly four fractional digits.
func Write(w io.Writer, snapshots []account.Snapshot) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, header); err != nil {
		return err
	}
	for _, s := range snapshots {
		_, err := fmt.Fprintf(bw, "%d,%s,%s,%s,%s\n",
			s.Client,
			s.Available,
			s.Held,
			s.Total,
			strconv.FormatBool(s.Locked),
		)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}
