package live

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for a voice session. A nil
// *Metrics is valid and records nothing, so embedders that do not scrape
// can leave SessionConfig.Metrics unset.
type Metrics struct {
	registry *prometheus.Registry

	// Session metrics
	SessionsActive  prometheus.Gauge
	SessionsTotal   *prometheus.CounterVec
	SessionDuration prometheus.Histogram

	// Audio metrics
	AudioBytesSent prometheus.Counter

	// Transcript metrics
	TranscriptsTotal     *prometheus.CounterVec
	TranscriptConfidence prometheus.Histogram

	// Turn metrics
	UtterancesTotal *prometheus.CounterVec
	UtteranceWords  prometheus.Histogram
	TurnScore       prometheus.Histogram
	CountdownsTotal *prometheus.CounterVec

	// Error metrics
	ErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance with all metrics registered on a
// private registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "voiceturn"
	}

	registry := prometheus.NewRegistry()

	sessionsActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of active voice sessions",
		},
	)

	sessionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_total",
			Help:      "Total number of voice sessions",
		},
		[]string{"status"},
	)

	sessionDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Voice session duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)

	audioBytesSent := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audio_bytes_sent_total",
			Help:      "Total PCM bytes sent to the transcription service",
		},
	)

	transcriptsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcripts_total",
			Help:      "Total transcript fragments received",
		},
		[]string{"kind"},
	)

	transcriptConfidence := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcript_confidence",
			Help:      "Confidence of final transcript fragments",
			Buckets:   []float64{0.2, 0.4, 0.6, 0.7, 0.8, 0.9, 0.95, 0.99},
		},
	)

	utterancesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Total utterances dispatched",
		},
		[]string{"trigger"},
	)

	utteranceWords := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "utterance_words",
			Help:      "Word count of dispatched utterances",
			Buckets:   []float64{1, 3, 5, 8, 10, 15, 25, 50, 100},
		},
	)

	turnScore := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_score",
			Help:      "End-of-turn scores computed on final fragments",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	countdownsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "countdowns_total",
			Help:      "Auto-send countdowns by outcome",
		},
		[]string{"outcome"},
	)

	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Total number of session errors",
		},
		[]string{"kind"},
	)

	// Register all metrics
	registry.MustRegister(
		sessionsActive,
		sessionsTotal,
		sessionDuration,
		audioBytesSent,
		transcriptsTotal,
		transcriptConfidence,
		utterancesTotal,
		utteranceWords,
		turnScore,
		countdownsTotal,
		errorsTotal,
	)

	return &Metrics{
		registry:             registry,
		SessionsActive:       sessionsActive,
		SessionsTotal:        sessionsTotal,
		SessionDuration:      sessionDuration,
		AudioBytesSent:       audioBytesSent,
		TranscriptsTotal:     transcriptsTotal,
		TranscriptConfidence: transcriptConfidence,
		UtterancesTotal:      utterancesTotal,
		UtteranceWords:       utteranceWords,
		TurnScore:            turnScore,
		CountdownsTotal:      countdownsTotal,
		ErrorsTotal:          errorsTotal,
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSessionStart records a session starting.
func (m *Metrics) RecordSessionStart() {
	if m == nil {
		return
	}
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a session ending.
func (m *Metrics) RecordSessionEnd(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.SessionsActive.Dec()
	m.SessionsTotal.WithLabelValues(status).Inc()
	m.SessionDuration.Observe(duration.Seconds())
}

// RecordAudio records PCM bytes shipped to the service.
func (m *Metrics) RecordAudio(bytes int) {
	if m == nil {
		return
	}
	m.AudioBytesSent.Add(float64(bytes))
}

// RecordTranscript records a transcript fragment; confidence is observed
// for final fragments only.
func (m *Metrics) RecordTranscript(kind string, confidence float64) {
	if m == nil {
		return
	}
	m.TranscriptsTotal.WithLabelValues(kind).Inc()
	if kind == "final" {
		m.TranscriptConfidence.Observe(confidence)
	}
}

// RecordUtterance records a dispatched utterance.
func (m *Metrics) RecordUtterance(trigger string, words int) {
	if m == nil {
		return
	}
	m.UtterancesTotal.WithLabelValues(trigger).Inc()
	m.UtteranceWords.Observe(float64(words))
}

// RecordScore records an end-of-turn score.
func (m *Metrics) RecordScore(value float64) {
	if m == nil {
		return
	}
	m.TurnScore.Observe(value)
}

// RecordCountdown records a countdown outcome: "fired" or "cancelled".
func (m *Metrics) RecordCountdown(outcome string) {
	if m == nil {
		return
	}
	m.CountdownsTotal.WithLabelValues(outcome).Inc()
}

// RecordError records a session error.
func (m *Metrics) RecordError(kind ErrorKind) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(string(kind)).Inc()
}
