// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/payflow/types"
)

func amt(t *testing.T, s string) types.Amount {
	t.Helper()
	a, err := types.ParseAmount(s)
	require.NoError(t, err)
	return a
}

func apply(t *testing.T, a *Account, kind types.Kind, tx uint32, amount types.Amount) error {
	t.Helper()
	return a.Apply(&types.Record{Kind: kind, Client: a.Client(), Tx: tx, Amount: amount})
}

func requireBalances(t *testing.T, a *Account, available, held string, locked bool) {
	t.Helper()
	assert.Equal(t, amt(t, available), a.Available(), "available")
	assert.Equal(t, amt(t, held), a.Held(), "held")
	assert.Equal(t, a.Available().Add(a.Held()), a.Total(), "available+held must equal total")
	assert.Equal(t, locked, a.Locked(), "locked")
}

func TestDepositWithdraw(t *testing.T) {
	a := New(1)
	require.NoError(t, apply(t, a, types.Deposit, 1, amt(t, "10.0000")))
	require.NoError(t, apply(t, a, types.Deposit, 2, amt(t, "5.0000")))
	require.NoError(t, apply(t, a, types.Withdrawal, 3, amt(t, "3.0000")))
	requireBalances(t, a, "12.0000", "0.0000", false)
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	a := New(1)
	require.NoError(t, apply(t, a, types.Deposit, 1, amt(t, "5.0000")))
	err := apply(t, a, types.Withdrawal, 2, amt(t, "10.0000"))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	requireBalances(t, a, "5.0000", "0.0000", false)
}

func TestWithdrawExactBoundary(t *testing.T) {
	a := New(1)
	require.NoError(t, apply(t, a, types.Deposit, 1, amt(t, "7.5000")))

	// One tick over the available balance is rejected.
	err := apply(t, a, types.Withdrawal, 2, amt(t, "7.5001"))
	require.ErrorIs(t, err, ErrInsufficientFunds)
	requireBalances(t, a, "7.5000", "0.0000", false)

	// The exact balance drains the account.
	require.NoError(t, apply(t, a, types.Withdrawal, 3, amt(t, "7.5000")))
	requireBalances(t, a, "0.0000", "0.0000", false)
}

func TestDisputeResolveRoundTrip(t *testing.T) {
	a := New(2)
	require.NoError(t, apply(t, a, types.Deposit, 10, amt(t, "20.0000")))

	require.NoError(t, apply(t, a, types.Dispute, 10, 0))
	requireBalances(t, a, "0.0000", "20.0000", false)

	require.NoError(t, apply(t, a, types.Resolve, 10, 0))
	requireBalances(t, a, "20.0000", "0.0000", false)
}

func TestChargebackLocksAccount(t *testing.T) {
	a := New(3)
	require.NoError(t, apply(t, a, types.Deposit, 20, amt(t, "50.0000")))
	require.NoError(t, apply(t, a, types.Dispute, 20, 0))
	require.NoError(t, apply(t, a, types.Chargeback, 20, 0))
	requireBalances(t, a, "0.0000", "0.0000", true)

	// Everything after the chargeback bounces off the lock.
	require.ErrorIs(t, apply(t, a, types.Deposit, 21, amt(t, "5.0000")), ErrLocked)
	require.ErrorIs(t, apply(t, a, types.Withdrawal, 22, amt(t, "1.0000")), ErrLocked)
	require.ErrorIs(t, apply(t, a, types.Dispute, 20, 0), ErrLocked)
	requireBalances(t, a, "0.0000", "0.0000", true)
}

func TestDisputeOfWithdrawalIgnored(t *testing.T) {
	a := New(4)
	require.NoError(t, apply(t, a, types.Deposit, 30, amt(t, "10.0000")))
	require.NoError(t, apply(t, a, types.Withdrawal, 31, amt(t, "4.0000")))

	err := apply(t, a, types.Dispute, 31, 0)
	require.ErrorIs(t, err, ErrNotDisputable)
	requireBalances(t, a, "6.0000", "0.0000", false)
}

func TestDisputeUnknownTx(t *testing.T) {
	a := New(1)
	require.NoError(t, apply(t, a, types.Deposit, 1, amt(t, "1.0000")))
	require.ErrorIs(t, apply(t, a, types.Dispute, 99, 0), ErrUnknownTx)
	require.ErrorIs(t, apply(t, a, types.Resolve, 99, 0), ErrUnknownTx)
	require.ErrorIs(t, apply(t, a, types.Chargeback, 99, 0), ErrUnknownTx)
	requireBalances(t, a, "1.0000", "0.0000", false)
}

func TestDoubleDisputeIsNoOp(t *testing.T) {
	a := New(1)
	require.NoError(t, apply(t, a, types.Deposit, 1, amt(t, "5.0000")))
	require.NoError(t, apply(t, a, types.Dispute, 1, 0))
	require.ErrorIs(t, apply(t, a, types.Dispute, 1, 0), ErrNotDisputable)
	requireBalances(t, a, "0.0000", "5.0000", false)
}

func TestNoRedisputeAfterResolve(t *testing.T) {
	a := New(1)
	require.NoError(t, apply(t, a, types.Deposit, 1, amt(t, "5.0000")))
	require.NoError(t, apply(t, a, types.Dispute, 1, 0))
	require.NoError(t, apply(t, a, types.Resolve, 1, 0))

	// Resolved is terminal: no re-dispute, no resolve, no chargeback.
	require.ErrorIs(t, apply(t, a, types.Dispute, 1, 0), ErrNotDisputable)
	require.ErrorIs(t, apply(t, a, types.Resolve, 1, 0), ErrNotDisputed)
	require.ErrorIs(t, apply(t, a, types.Chargeback, 1, 0), ErrNotDisputed)
	requireBalances(t, a, "5.0000", "0.0000", false)
}

func TestResolveWithoutDispute(t *testing.T) {
	a := New(1)
	require.NoError(t, apply(t, a, types.Deposit, 1, amt(t, "5.0000")))
	require.ErrorIs(t, apply(t, a, types.Resolve, 1, 0), ErrNotDisputed)
	require.ErrorIs(t, apply(t, a, types.Chargeback, 1, 0), ErrNotDisputed)
	requireBalances(t, a, "5.0000", "0.0000", false)
}

// A dispute may reference a deposit whose funds were already withdrawn;
// available legitimately goes negative while the dispute is open.
func TestDisputeAfterSpendDrivesAvailableNegative(t *testing.T) {
	a := New(1)
	require.NoError(t, apply(t, a, types.Deposit, 1, amt(t, "10.0000")))
	require.NoError(t, apply(t, a, types.Withdrawal, 2, amt(t, "8.0000")))
	require.NoError(t, apply(t, a, types.Dispute, 1, 0))

	assert.Equal(t, amt(t, "10.0000"), a.Held())
	assert.Equal(t, types.Amount(-80000), a.Available())
	assert.Equal(t, amt(t, "2.0000"), a.Total())
}

func TestSnapshot(t *testing.T) {
	a := New(7)
	require.NoError(t, apply(t, a, types.Deposit, 1, amt(t, "3.0000")))
	require.NoError(t, apply(t, a, types.Dispute, 1, 0))

	s := a.Snapshot()
	assert.Equal(t, uint16(7), s.Client)
	assert.Equal(t, amt(t, "0.0000"), s.Available)
	assert.Equal(t, amt(t, "3.0000"), s.Held)
	assert.Equal(t, amt(t, "3.0000"), s.Total)
	assert.False(t, s.Locked)
}
