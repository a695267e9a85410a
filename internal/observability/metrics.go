package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	TurnsTotal          *prometheus.CounterVec
	ContextBuilds       *prometheus.CounterVec
	ContextBuildLatency prometheus.Histogram
	InferenceLatency    *prometheus.HistogramVec
	TurnStageLatency    *prometheus.HistogramVec
	HistoryLength       prometheus.Histogram
	ActiveSessions      prometheus.Gauge
	SessionEvents       *prometheus.CounterVec
	WSMessages          *prometheus.CounterVec
	ArchiveFailures     prometheus.Counter

	stages *turnStageWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by outcome.",
		}, []string{"outcome"}),
		ContextBuilds: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "knowledge_context_builds_total",
			Help:      "Knowledge context builds by result.",
		}, []string{"result"}),
		ContextBuildLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "knowledge_context_build_ms",
			Help:      "Knowledge context build latency in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
		InferenceLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_latency_ms",
			Help:      "Inference gateway latency in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 4000, 8000, 16000, 32000},
		}, []string{"gateway"}),
		TurnStageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_stage_ms",
			Help:      "Chat turn stage latency in milliseconds.",
			Buckets:   []float64{1, 5, 25, 100, 500, 1000, 4000, 16000},
		}, []string{"stage"}),
		HistoryLength: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "history_window_turns",
			Help:      "History turns included in assembled prompts.",
			Buckets:   []float64{0, 1, 2, 4, 6, 8, 10, 20},
		}),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of open chat sessions.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Chat session lifecycle events.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Websocket messages by direction and type.",
		}, []string{"direction", "type"}),
		ArchiveFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_failures_total",
			Help:      "Transcript archive writes that failed.",
		}),
		stages: newTurnStageWindow(512),
	}
}

func (m *Metrics) ObserveTurn(outcome string) {
	m.TurnsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveContextBuild(took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ContextBuilds.WithLabelValues(result).Inc()
	m.ContextBuildLatency.Observe(float64(took.Milliseconds()))
}

func (m *Metrics) ObserveInference(gateway string, took time.Duration) {
	m.InferenceLatency.WithLabelValues(gateway).Observe(float64(took.Milliseconds()))
}

// ObserveStage feeds both the histogram and the rolling snapshot window.
func (m *Metrics) ObserveStage(stage string, took time.Duration) {
	ms := float64(took.Microseconds()) / 1000
	m.TurnStageLatency.WithLabelValues(stage).Observe(ms)
	m.stages.Observe(stage, ms)
}

func (m *Metrics) ObserveOutcomeIndicator(name string) {
	m.stages.ObserveIndicator(name)
}

func (m *Metrics) SnapshotTurnStages() TurnStageSnapshot {
	return m.stages.Snapshot()
}

func (m *Metrics) ResetTurnStages() {
	m.stages.Reset()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
