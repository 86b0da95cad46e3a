// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/luxfi/payflow/account"
	"github.com/luxfi/payflow/log"
	"github.com/luxfi/payflow/types"
)

// shard owns the accounts for a disjoint subset of clients. All state
// here is touched by exactly one goroutine for the whole run, so the maps
// need no locks; the engine reads the accounts only after the shard has
// exited.
type shard struct {
	id       int
	in       chan types.Record
	accounts map[uint16]*account.Account
	metrics  *Metrics
}

func newShard(id int, depth int, m *Metrics) *shard {
	return &shard{
		id:       id,
		in:       make(chan types.Record, depth),
		accounts: make(map[uint16]*account.Account),
		metrics:  m,
	}
}

// run applies records until the inbox closes. Rejections are soft: they
// are counted, optionally traced, and the run continues.
func (s *shard) run() error {
	for rec := range s.in {
		acct, ok := s.accounts[rec.Client]
		if !ok {
			acct = account.New(rec.Client)
			s.accounts[rec.Client] = acct
			s.metrics.AccountsCreated.Inc()
		}
		wasLocked := acct.Locked()
		if err := acct.Apply(&rec); err != nil {
			s.metrics.RecordsRejected.WithLabelValues(err.Error()).Inc()
			if log.Enabled(log.LevelTrace) {
				log.Trace("record rejected",
					"shard", s.id,
					"kind", rec.Kind,
					"client", rec.Client,
					"tx", rec.Tx,
					"seq", rec.Seq,
					"reason", err,
				)
			}
			continue
		}
		s.metrics.RecordsApplied.WithLabelValues(rec.Kind.String()).Inc()
		if !wasLocked && acct.Locked() {
			s.metrics.AccountsLocked.Inc()
			log.Debug("account locked by chargeback", "client", rec.Client, "tx", rec.Tx)
		}
	}
	return nil
}

// snapshots returns the final state of every account this shard owns.
func (s *shard) snapshots() []account.Snapshot {
	out := make([]account.Snapshot, 0, len(s.accounts))
	for _, acct := range s.accounts {
		out = append(out, acct.Snapshot())
	}
	return out
}
