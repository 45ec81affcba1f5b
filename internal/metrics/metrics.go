// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnfinity_llm_requests_total",
			Help: "Total number of completion requests sent to the LLM provider",
		},
		[]string{"model", "status"},
	)

	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "learnfinity_llm_request_duration_seconds",
			Help:    "Time spent waiting for LLM completions",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		},
		[]string{"model"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnfinity_llm_tokens_total",
			Help: "Tokens consumed by LLM completions",
		},
		[]string{"kind"},
	)

	LLMInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "learnfinity_llm_in_flight",
			Help: "LLM requests currently holding a concurrency slot",
		},
	)

	Normalizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnfinity_skill_normalizations_total",
			Help: "Skill normalization outcomes by method",
		},
		[]string{"method"},
	)

	Personalizations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnfinity_personalizations_total",
			Help: "Personalized content generations by outcome",
		},
		[]string{"status"},
	)

	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnfinity_personalization_jobs_total",
			Help: "Personalization jobs finished by the worker",
		},
		[]string{"status"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnfinity_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "learnfinity_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "learnfinity_personalization_job_duration_seconds",
			Help:    "Wall time of a personalization job",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// WatchPool exports database pool occupancy. Call it once per process.
func WatchPool(stats func() (total, idle, acquired int32)) {
	gauge := func(state string, pick func(total, idle, acquired int32) int32) {
		promauto.NewGaugeFunc(prometheus.GaugeOpts{
			Name:        "learnfinity_db_connections",
			Help:        "Database pool connections by state",
			ConstLabels: prometheus.Labels{"state": state},
		}, func() float64 { return float64(pick(stats())) })
	}
	gauge("total", func(t, _, _ int32) int32 { return t })
	gauge("idle", func(_, i, _ int32) int32 { return i })
	gauge("acquired", func(_, _, a int32) int32 { return a })
}

func WatchHub(clients func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "learnfinity_ws_clients",
		Help: "Connected status websocket clients",
	}, func() float64 { return float64(clients()) })
}
