package node

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts node activity. Each node carries its own registry so
// several nodes can live in one process.
type Metrics struct {
	BlocksMined           prometheus.Counter
	TransactionsSubmitted prometheus.Counter
	ContractExecutions    prometheus.Counter
	MiningDuration        prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BlocksMined: factory.NewCounter(prometheus.CounterOpts{
			Name: "caravel_blocks_mined_total",
			Help: "Blocks mined by this node.",
		}),
		TransactionsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "caravel_transactions_submitted_total",
			Help: "Transactions accepted into the pending pool through this node.",
		}),
		ContractExecutions: factory.NewCounter(prometheus.CounterOpts{
			Name: "caravel_contract_executions_total",
			Help: "Contract payouts submitted by the sweep.",
		}),
		MiningDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "caravel_mining_duration_seconds",
			Help:    "Wall clock time spent mining each block.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 12),
		}),
	}
}
