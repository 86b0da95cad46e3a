// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package types

// Kind identifies the event a record describes.
type Kind uint8

const (
	Deposit Kind = iota
	Withdrawal
	Dispute
	Resolve
	Chargeback
)

// HasAmount reports whether records of this kind carry an amount column.
// Dispute-family records reference a prior transaction instead.
func (k Kind) HasAmount() bool {
	return k == Deposit || k == Withdrawal
}

func (k Kind) String() string {
	switch k {
	case Deposit:
		return "deposit"
	case Withdrawal:
		return "withdrawal"
	case Dispute:
		return "dispute"
	case Resolve:
		return "resolve"
	case Chargeback:
		return "chargeback"
	default:
		return "unknown"
	}
}

// Record is one input row after parsing. Seq is assigned downstream of the
// parsers, in input byte order, and is the only authoritative chronology:
// two records compare "earlier/later" strictly by Seq.
type Record struct {
	Kind   Kind
	Client uint16
	Tx     uint32
	Amount Amount // valid only when Kind.HasAmount()
	Seq    uint64
}
