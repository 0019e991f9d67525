package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "genai_backend_requests_total",
			Help: "Total number of generation backend requests",
		},
		[]string{"stage", "status"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "genai_backend_request_duration_seconds",
			Help: "Duration of generation backend requests in seconds",
		},
		[]string{"stage"},
	)

	DispatcherActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatcher_active_requests",
			Help: "Number of backend requests currently executing",
		},
	)

	DispatcherQueuedRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatcher_queued_requests",
			Help: "Number of backend requests waiting for admission",
		},
	)

	StageFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_stage_fallbacks_total",
			Help: "Total number of deterministic fallback activations per stage",
		},
		[]string{"stage"},
	)

	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of orchestration pipeline runs",
		},
		[]string{"status"},
	)

	PipelineRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "pipeline_run_duration_seconds",
			Help: "End-to-end duration of orchestration pipeline runs in seconds",
		},
	)
)
