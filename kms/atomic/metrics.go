package atomic

import "github.com/prometheus/client_golang/prometheus"

var (
	commitCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tinykms",
			Subsystem: "txn",
			Name:      "commit_total",
			Help:      "Counter of commit attempts by result.",
		}, []string{"result"})

	checkRejectCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tinykms",
			Subsystem: "txn",
			Name:      "check_reject_total",
			Help:      "Counter of transactions rejected in the check phase.",
		})

	pageFlipCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tinykms",
			Subsystem: "txn",
			Name:      "page_flip_total",
			Help:      "Counter of submitted page flips by result.",
		}, []string{"result"})

	commitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "tinykms",
			Subsystem: "txn",
			Name:      "commit_duration_seconds",
			Help:      "Bucketed histogram of commit latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 16),
		})
)

func init() {
	prometheus.MustRegister(commitCounter)
	prometheus.MustRegister(checkRejectCounter)
	prometheus.MustRegister(pageFlipCounter)
	prometheus.MustRegister(commitDuration)
}
