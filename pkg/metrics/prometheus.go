package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements the domain Metrics interface using Prometheus.
type Recorder struct {
	chatRequests  *prometheus.CounterVec
	llmCalls      *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	alertsTotal   *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		chatRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copenny_chat_requests_total",
				Help: "Total chat requests by resolved response type",
			},
			[]string{"type"},
		),
		llmCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copenny_llm_calls_total",
				Help: "Total LLM completions by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copenny_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "copenny_alerts_total",
				Help: "Total cashflow alerts by type",
			},
			[]string{"type"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "copenny_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// RecordChatRequest records a chat request with its response type.
func (r *Recorder) RecordChatRequest(responseType string) {
	r.chatRequests.WithLabelValues(responseType).Inc()
}

// RecordLLMCall records an LLM completion attempt.
func (r *Recorder) RecordLLMCall(provider, outcome string) {
	r.llmCalls.WithLabelValues(provider, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordAlert records a generated cashflow alert.
func (r *Recorder) RecordAlert(kind string) {
	r.alertsTotal.WithLabelValues(kind).Inc()
}

// RecordStage records pipeline stage latency in seconds.
func (r *Recorder) RecordStage(stage string, seconds float64) {
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
}
