package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	attemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attempts_total",
		Help:      "Closed application attempts, by outcome.",
	}, []string{"outcome"})

	attemptDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "attempt_duration_seconds",
		Help:      "Wall time of one application attempt.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
)

func init() {
	register(attemptsTotal, attemptDuration)
}

func IncAttempt(outcome string) { attemptsTotal.WithLabelValues(outcome).Inc() }

func ObserveAttemptDuration(d time.Duration) { attemptDuration.Observe(d.Seconds()) }
