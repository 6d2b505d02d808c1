// Package metrics holds the prometheus collectors, one file per concern.
// Collectors register themselves in init so importing the package is enough.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "job_autopilot"

func register(cs ...prometheus.Collector) {
	for _, c := range cs {
		prometheus.MustRegister(c)
	}
}
