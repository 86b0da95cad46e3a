// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package account implements the per-client balance state machine: posted
// funds, the dispute lifecycle, and the lock applied by a chargeback.
// Accounts are not safe for concurrent use; the engine confines each one
// to a single shard goroutine.
package account

import (
	"errors"

	"github.com/luxfi/payflow/types"
)

// TxState tracks where a recorded transaction sits in the dispute
// lifecycle. Only Posted deposits may enter Disputed; Resolved and
// ChargedBack are terminal.
type TxState uint8

const (
	Posted TxState = iota
	Disputed
	Resolved
	ChargedBack
)

func (s TxState) String() string {
	switch s {
	case Posted:
		return "posted"
	case Disputed:
		return "disputed"
	case Resolved:
		return "resolved"
	case ChargedBack:
		return "charged_back"
	default:
		return "unknown"
	}
}

// Soft per-record failures. The shard logs and counts these; none of
// them stops the run.
var (
	ErrLocked            = errors.New("account is locked")
	ErrInsufficientFunds = errors.New("insufficient available funds")
	ErrUnknownTx         = errors.New("unknown transaction")
	ErrNotDisputable     = errors.New("transaction is not a disputable deposit")
	ErrNotDisputed       = errors.New("transaction is not under dispute")
	ErrNoAmount          = errors.New("record carries no amount")
)

// txRecord is the history entry for a transaction that affected the
// account. Withdrawals are recorded but never become disputable.
type txRecord struct {
	amount  types.Amount
	state   TxState
	deposit bool
}

// Account is the state for one client. The invariant
// available + held == total holds after every applied record; total is
// derived rather than stored so the invariant cannot drift.
type Account struct {
	client    uint16
	available types.Amount
	held      types.Amount
	locked    bool
	history   map[uint32]txRecord
}

// New returns an empty, unlocked account for the given client.
func New(client uint16) *Account {
	return &Account{
		client:  client,
		history: make(map[uint32]txRecord),
	}
}

func (a *Account) Client() uint16          { return a.client }
func (a *Account) Available() types.Amount { return a.available }
func (a *Account) Held() types.Amount      { return a.held }
func (a *Account) Total() types.Amount     { return a.available.Add(a.held) }
func (a *Account) Locked() bool            { return a.locked }

// Apply runs one record through the state machine. A nil return means the
// record took effect; any error is a soft rejection leaving the account
// untouched.
func (a *Account) Apply(rec *types.Record) error {
	if a.locked {
		return ErrLocked
	}
	switch rec.Kind {
	case types.Deposit:
		return a.deposit(rec)
	case types.Withdrawal:
		return a.withdraw(rec)
	case types.Dispute:
		return a.dispute(rec)
	case types.Resolve:
		return a.resolve(rec)
	case types.Chargeback:
		return a.chargeback(rec)
	default:
		return ErrUnknownTx
	}
}

func (a *Account) deposit(rec *types.Record) error {
	a.available = a.available.Add(rec.Amount)
	if _, seen := a.history[rec.Tx]; !seen {
		a.history[rec.Tx] = txRecord{amount: rec.Amount, state: Posted, deposit: true}
	}
	return nil
}

func (a *Account) withdraw(rec *types.Record) error {
	if a.available < rec.Amount {
		return ErrInsufficientFunds
	}
	a.available = a.available.Sub(rec.Amount)
	if _, seen := a.history[rec.Tx]; !seen {
		a.history[rec.Tx] = txRecord{amount: rec.Amount, state: Posted, deposit: false}
	}
	return nil
}

// dispute moves a posted deposit's funds from available to held. Disputes
// against withdrawals are rejected: reversing a payout would either drive
// held negative or recreate funds that already left the account.
func (a *Account) dispute(rec *types.Record) error {
	tr, ok := a.history[rec.Tx]
	if !ok {
		return ErrUnknownTx
	}
	if !tr.deposit || tr.state != Posted {
		return ErrNotDisputable
	}
	a.available = a.available.Sub(tr.amount)
	a.held = a.held.Add(tr.amount)
	tr.state = Disputed
	a.history[rec.Tx] = tr
	return nil
}

func (a *Account) resolve(rec *types.Record) error {
	tr, ok := a.history[rec.Tx]
	if !ok {
		return ErrUnknownTx
	}
	if tr.state != Disputed {
		return ErrNotDisputed
	}
	a.available = a.available.Add(tr.amount)
	a.held = a.held.Sub(tr.amount)
	tr.state = Resolved
	a.history[rec.Tx] = tr
	return nil
}

func (a *Account) chargeback(rec *types.Record) error {
	tr, ok := a.history[rec.Tx]
	if !ok {
		return ErrUnknownTx
	}
	if tr.state != Disputed {
		return ErrNotDisputed
	}
	a.held = a.held.Sub(tr.amount)
	a.locked = true
	tr.state = ChargedBack
	a.history[rec.Tx] = tr
	return nil
}

// Snapshot is the reportable view of an account after the pipeline
// drains.
type Snapshot struct {
	Client    uint16
	Available types.Amount
	Held      types.Amount
	Total     types.Amount
	Locked    bool
}

// Snapshot captures the current balances.
func (a *Account) Snapshot() Snapshot {
	return Snapshot{
		Client:    a.client,
		Available: a.available,
		Held:      a.held,
		Total:     a.Total(),
		Locked:    a.locked,
	}
}
