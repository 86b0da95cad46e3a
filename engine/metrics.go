// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "payflow"

// Metrics counts pipeline activity. Counters are shared across stage
// goroutines; prometheus counters are safe for that.
type Metrics struct {
	BlocksRead prometheus.Counter
	BytesRead  prometheus.Counter

	RowsParsed  prometheus.Counter
	RowsDropped *prometheus.CounterVec // by parse failure reason

	RecordsApplied  *prometheus.CounterVec // by record kind
	RecordsRejected *prometheus.CounterVec // by state machine rejection reason

	AccountsCreated prometheus.Counter
	AccountsLocked  prometheus.Counter
}

// NewMetrics builds the metric set and registers it on reg. A nil reg
// leaves the metrics unregistered but still usable, which is what the
// tests want.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		BlocksRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "blocks_read_total",
			Help:      "Raw input blocks emitted by the reader",
		}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bytes_read_total",
			Help:      "Input bytes consumed by the reader",
		}),
		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_parsed_total",
			Help:      "Well-formed rows converted into records",
		}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "rows_dropped_total",
			Help:      "Malformed rows dropped during parsing",
		}, []string{"reason"}),
		RecordsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_applied_total",
			Help:      "Records that changed account state",
		}, []string{"kind"}),
		RecordsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_rejected_total",
			Help:      "Records rejected by the account state machine",
		}, []string{"reason"}),
		AccountsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "accounts_created_total",
			Help:      "Accounts lazily created on first reference",
		}),
		AccountsLocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "accounts_locked_total",
			Help:      "Accounts frozen by a chargeback",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{
		m.BlocksRead, m.BytesRead,
		m.RowsParsed, m.RowsDropped,
		m.RecordsApplied, m.RecordsRejected,
		m.AccountsCreated, m.AccountsLocked,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
