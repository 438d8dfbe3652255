package broadcast

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "indexer",
		Subsystem: "broadcast",
		Name:      "subscribers",
		Help:      "Number of currently registered live subscribers.",
	})
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "broadcast",
		Name:      "messages_sent_total",
		Help:      "Total number of events successfully delivered to subscribers.",
	})
	SendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "broadcast",
		Name:      "send_failures_total",
		Help:      "Total number of failed event deliveries.",
	})
	Terminations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "indexer",
		Subsystem: "broadcast",
		Name:      "terminations_total",
		Help:      "Total number of subscribers closed because they did not answer a heartbeat ping.",
	})
)
