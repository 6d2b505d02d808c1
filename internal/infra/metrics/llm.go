package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	llmCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_calls_total",
		Help:      "Completion calls to the language model, by result.",
	}, []string{"provider", "result"})

	llmTokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_tokens_total",
		Help:      "Tokens consumed, by direction.",
	}, []string{"provider", "direction"})
)

func init() {
	register(llmCalls, llmTokens)
}

func IncLLMCall(provider, result string) { llmCalls.WithLabelValues(provider, result).Inc() }

func AddLLMTokens(provider, direction string, n int) {
	llmTokens.WithLabelValues(provider, direction).Add(float64(n))
}
