package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	jobsDiscovered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "jobs_discovered_total",
		Help:      "Postings accepted into the store, by source.",
	}, []string{"source"})

	sourceErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_errors_total",
		Help:      "Discovery runs in which a source adapter failed.",
	}, []string{"source"})

	jobsByStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "jobs_by_status",
		Help:      "Jobs currently in each status.",
	}, []string{"status"})
)

func init() {
	register(jobsDiscovered, sourceErrors, jobsByStatus)
}

func IncJobDiscovered(source string) { jobsDiscovered.WithLabelValues(source).Inc() }
func IncSourceError(source string)  { sourceErrors.WithLabelValues(source).Inc() }

func SetJobsByStatus(status string, n int) { jobsByStatus.WithLabelValues(status).Set(float64(n)) }
