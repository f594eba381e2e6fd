package live

import (
	"sync"
	"time"
)

// AudioQuality grades a single transcript confidence reading.
type AudioQuality string

const (
	QualityExcellent AudioQuality = "excellent"
	QualityGood      AudioQuality = "good"
	QualityFair      AudioQuality = "fair"
	QualityPoor      AudioQuality = "poor"
)

// NoiseLevel is the inferred background-noise band for a reading.
type NoiseLevel string

const (
	NoiseLow    NoiseLevel = "low"
	NoiseMedium NoiseLevel = "medium"
	NoiseHigh   NoiseLevel = "high"
)

// Trend describes how confidence is moving across the window.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// QualitySample is one scored transcript observation.
type QualitySample struct {
	Confidence   float64      `json:"confidence"`
	AudioQuality AudioQuality `json:"audio_quality"`
	NoiseLevel   NoiseLevel   `json:"noise_level"`
	TimestampMs  int64        `json:"timestamp_ms"`
}

// QualityMetrics summarizes the recent window.
type QualityMetrics struct {
	AverageConfidence   float64  `json:"average_confidence"`
	TotalSamples        int      `json:"total_samples"`
	HighConfidenceCount int      `json:"high_confidence_count"`
	LowConfidenceCount  int      `json:"low_confidence_count"`
	Trend               Trend    `json:"trend"`
	Recommendations     []string `json:"recommendations"`
}

const (
	highConfidence = 0.8
	lowConfidence  = 0.6
)

// QualityTracker keeps a sliding window of transcript confidence readings
// and turns them into quality metrics and user-facing recommendations.
// Safe for concurrent use.
type QualityTracker struct {
	cfg QualityConfig
	now func() time.Time

	mu     sync.Mutex
	window []QualitySample
	total  int
}

// NewQualityTracker returns a tracker over a cfg.WindowSize sliding window.
func NewQualityTracker(cfg QualityConfig) *QualityTracker {
	if cfg.WindowSize <= 0 {
		cfg = DefaultQualityConfig()
	}
	return &QualityTracker{cfg: cfg, now: time.Now}
}

// Record adds one confidence reading.
func (q *QualityTracker) Record(confidence float64) QualitySample {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	s := QualitySample{
		Confidence:   confidence,
		AudioQuality: classifyQuality(confidence),
		NoiseLevel:   classifyNoise(confidence),
		TimestampMs:  q.now().UnixMilli(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.total++
	q.window = append(q.window, s)
	if len(q.window) > q.cfg.WindowSize {
		q.window = q.window[len(q.window)-q.cfg.WindowSize:]
	}
	return s
}

// Metrics computes the current window summary.
func (q *QualityTracker) Metrics() QualityMetrics {
	q.mu.Lock()
	defer q.mu.Unlock()

	m := QualityMetrics{TotalSamples: q.total, Trend: TrendStable}
	if len(q.window) == 0 {
		return m
	}

	sum := 0.0
	for _, s := range q.window {
		sum += s.Confidence
		if s.Confidence > highConfidence {
			m.HighConfidenceCount++
		}
		if s.Confidence < lowConfidence {
			m.LowConfidenceCount++
		}
	}
	m.AverageConfidence = sum / float64(len(q.window))
	m.Trend = q.trendLocked()
	m.Recommendations = recommend(m, len(q.window))
	return m
}

// Reset clears the window but keeps the lifetime sample count.
func (q *QualityTracker) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.window = q.window[:0]
}

// trendLocked compares the newest TrendSpan readings against the span
// before them. Requires q.mu held.
func (q *QualityTracker) trendLocked() Trend {
	span := q.cfg.TrendSpan
	if span <= 0 || len(q.window) < 2*span {
		return TrendStable
	}
	recent := meanConfidence(q.window[len(q.window)-span:])
	earlier := meanConfidence(q.window[len(q.window)-2*span : len(q.window)-span])
	switch {
	case recent-earlier > q.cfg.TrendDelta:
		return TrendImproving
	case earlier-recent > q.cfg.TrendDelta:
		return TrendDeclining
	}
	return TrendStable
}

func meanConfidence(samples []QualitySample) float64 {
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s.Confidence
	}
	return sum / float64(len(samples))
}

func classifyQuality(confidence float64) AudioQuality {
	switch {
	case confidence >= 0.9:
		return QualityExcellent
	case confidence >= 0.75:
		return QualityGood
	case confidence >= 0.6:
		return QualityFair
	}
	return QualityPoor
}

func classifyNoise(confidence float64) NoiseLevel {
	switch {
	case confidence >= 0.8:
		return NoiseLow
	case confidence >= 0.5:
		return NoiseMedium
	}
	return NoiseHigh
}

func recommend(m QualityMetrics, windowLen int) []string {
	var recs []string
	if m.AverageConfidence < lowConfidence {
		recs = append(recs, "Move closer to the microphone or reduce background noise.")
	}
	if windowLen > 0 && m.LowConfidenceCount*3 > windowLen {
		recs = append(recs, "Try speaking more slowly and clearly.")
	}
	if m.Trend == TrendDeclining {
		recs = append(recs, "Transcription quality is declining. Check your microphone position.")
	}
	return recs
}
