package metrics

import "github.com/prometheus/client_golang/prometheus"

var activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "browser_sessions_active",
	Help:      "Form sessions currently open.",
})

func init() {
	register(activeSessions)
}

func IncActiveSessions() { activeSessions.Inc() }
func DecActiveSessions() { activeSessions.Dec() }
