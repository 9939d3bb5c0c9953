package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchmark_runs_total",
			Help: "Benchmark runs by outcome (completed, cached, fallback, failed, cancelled, rejected)",
		},
		[]string{"outcome"},
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "benchmark_run_duration_seconds",
			Help:    "Wall time of a full benchmark run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchmark_llm_calls_total",
			Help: "Provider calls by model and outcome (ok, error, quota, timeout)",
		},
		[]string{"model", "outcome"},
	)

	LLMCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "benchmark_llm_call_duration_seconds",
			Help:    "Provider call latency",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"model"},
	)

	LLMTokensUsed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchmark_llm_tokens_used",
			Help: "Total LLM tokens used",
		},
		[]string{"model", "type"},
	)

	LLMCost = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchmark_llm_cost_usd",
			Help: "Estimated LLM API cost in USD",
		},
		[]string{"model"},
	)

	TotalScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "benchmark_total_score",
			Help:    "Distribution of computed run total scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	AnswersIndexed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchmark_answers_indexed_total",
			Help: "Answers pushed to the search backends",
		},
		[]string{"backend", "status"},
	)
)

var initOnce sync.Once

// Init registers all collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RunsTotal)
		prometheus.MustRegister(RunDuration)
		prometheus.MustRegister(LLMCalls)
		prometheus.MustRegister(LLMCallDuration)
		prometheus.MustRegister(LLMTokensUsed)
		prometheus.MustRegister(LLMCost)
		prometheus.MustRegister(TotalScore)
		prometheus.MustRegister(AnswersIndexed)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
