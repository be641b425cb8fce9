package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"outfit-planner/internal/llm"
)

var (
	// Operations counts generate and save calls by outcome.
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "outfit_planner",
		Name:      "operations_total",
		Help:      "Outfit operations by kind and outcome.",
	}, []string{"operation", "outcome"})

	// GenerationDuration tracks end-to-end generation latency.
	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "outfit_planner",
		Name:      "generation_duration_seconds",
		Help:      "Time spent generating a weekly plan.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40},
	})

	// Tokens counts LLM tokens by model and direction.
	Tokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "outfit_planner",
		Name:      "llm_tokens_total",
		Help:      "LLM tokens consumed.",
	}, []string{"model", "kind"})

	// HTTPDuration tracks request latency by route and status.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "outfit_planner",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveOperation counts one operation outcome.
func ObserveOperation(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	Operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveTokens adds the usage of one execution to the token counters.
func ObserveTokens(meta llm.AgentMeta) {
	model := meta.Usage.Model
	if model == "" {
		model = "unknown"
	}
	Tokens.WithLabelValues(model, "prompt").Add(float64(meta.Usage.PromptTokens))
	Tokens.WithLabelValues(model, "completion").Add(float64(meta.Usage.CompletionTokens))
}
