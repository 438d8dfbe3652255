package indexer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LatestHeadBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "sync",
		Name:      "latest_head_block",
		Help:      "Shows the latest observed chain head block.",
	})
	LatestIndexedBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "sync",
		Name:      "latest_indexed_block",
		Help:      "Shows the latest block up to which all logs are indexed and saved to the DB.",
	})
	IndexedTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "fetcher",
		Name:      "indexed_transactions_total",
		Help:      "Total number of newly inserted transactions.",
	}, []string{"method"})
	RangeRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "controller",
		Name:      "range_retries_total",
		Help:      "Total number of block range retries after transient failures.",
	})
	RangeBisections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "controller",
		Name:      "range_bisections_total",
		Help:      "Total number of block ranges split in halves after a capacity error.",
	})
)
