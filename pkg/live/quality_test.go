package live

import (
	"math"
	"strings"
	"testing"
)

func TestClassifyQuality(t *testing.T) {
	tests := []struct {
		confidence float64
		want       AudioQuality
	}{
		{0.95, QualityExcellent},
		{0.9, QualityExcellent},
		{0.8, QualityGood},
		{0.75, QualityGood},
		{0.65, QualityFair},
		{0.6, QualityFair},
		{0.4, QualityPoor},
		{0, QualityPoor},
	}
	for _, tt := range tests {
		if got := classifyQuality(tt.confidence); got != tt.want {
			t.Errorf("classifyQuality(%v) = %q, want %q", tt.confidence, got, tt.want)
		}
	}
}

func TestClassifyNoise(t *testing.T) {
	tests := []struct {
		confidence float64
		want       NoiseLevel
	}{
		{0.85, NoiseLow},
		{0.8, NoiseLow},
		{0.6, NoiseMedium},
		{0.5, NoiseMedium},
		{0.3, NoiseHigh},
	}
	for _, tt := range tests {
		if got := classifyNoise(tt.confidence); got != tt.want {
			t.Errorf("classifyNoise(%v) = %q, want %q", tt.confidence, got, tt.want)
		}
	}
}

func TestQualityTracker_RecordAndMetrics(t *testing.T) {
	q := NewQualityTracker(QualityConfig{WindowSize: 10, TrendSpan: 3, TrendDelta: 0.05})

	s := q.Record(0.92)
	if s.AudioQuality != QualityExcellent || s.NoiseLevel != NoiseLow {
		t.Errorf("sample classified as %q/%q", s.AudioQuality, s.NoiseLevel)
	}
	if s.TimestampMs == 0 {
		t.Error("sample missing timestamp")
	}

	q.Record(0.5)
	q.Record(0.85)

	m := q.Metrics()
	if m.TotalSamples != 3 {
		t.Errorf("TotalSamples = %d, want 3", m.TotalSamples)
	}
	wantAvg := (0.92 + 0.5 + 0.85) / 3
	if math.Abs(m.AverageConfidence-wantAvg) > 1e-9 {
		t.Errorf("AverageConfidence = %v, want %v", m.AverageConfidence, wantAvg)
	}
	if m.HighConfidenceCount != 2 {
		t.Errorf("HighConfidenceCount = %d, want 2", m.HighConfidenceCount)
	}
	if m.LowConfidenceCount != 1 {
		t.Errorf("LowConfidenceCount = %d, want 1", m.LowConfidenceCount)
	}
}

func TestQualityTracker_WindowTrimsOldestButKeepsTotal(t *testing.T) {
	q := NewQualityTracker(QualityConfig{WindowSize: 4, TrendSpan: 2, TrendDelta: 0.05})

	for i := 0; i < 6; i++ {
		q.Record(0.3) // old, low
	}
	for i := 0; i < 4; i++ {
		q.Record(0.9) // fills the window
	}

	m := q.Metrics()
	if m.TotalSamples != 10 {
		t.Errorf("TotalSamples = %d, want 10", m.TotalSamples)
	}
	if m.LowConfidenceCount != 0 {
		t.Errorf("LowConfidenceCount = %d, want 0 after trim", m.LowConfidenceCount)
	}
	if math.Abs(m.AverageConfidence-0.9) > 1e-9 {
		t.Errorf("AverageConfidence = %v, want 0.9", m.AverageConfidence)
	}
}

func TestQualityTracker_Trend(t *testing.T) {
	cfg := QualityConfig{WindowSize: 10, TrendSpan: 3, TrendDelta: 0.05}

	improving := NewQualityTracker(cfg)
	for _, c := range []float64{0.5, 0.5, 0.5, 0.9, 0.9, 0.9} {
		improving.Record(c)
	}
	if got := improving.Metrics().Trend; got != TrendImproving {
		t.Errorf("Trend = %q, want %q", got, TrendImproving)
	}

	declining := NewQualityTracker(cfg)
	for _, c := range []float64{0.9, 0.9, 0.9, 0.5, 0.5, 0.5} {
		declining.Record(c)
	}
	if got := declining.Metrics().Trend; got != TrendDeclining {
		t.Errorf("Trend = %q, want %q", got, TrendDeclining)
	}

	stable := NewQualityTracker(cfg)
	for i := 0; i < 6; i++ {
		stable.Record(0.8)
	}
	if got := stable.Metrics().Trend; got != TrendStable {
		t.Errorf("Trend = %q, want %q", got, TrendStable)
	}

	// not enough samples for a verdict
	short := NewQualityTracker(cfg)
	short.Record(0.2)
	short.Record(0.9)
	if got := short.Metrics().Trend; got != TrendStable {
		t.Errorf("Trend = %q, want %q with a short window", got, TrendStable)
	}
}

func TestQualityTracker_Recommendations(t *testing.T) {
	q := NewQualityTracker(QualityConfig{WindowSize: 10, TrendSpan: 3, TrendDelta: 0.05})
	for _, c := range []float64{0.9, 0.9, 0.9, 0.4, 0.4, 0.4} {
		q.Record(c)
	}

	m := q.Metrics()
	if m.Trend != TrendDeclining {
		t.Fatalf("Trend = %q, want %q", m.Trend, TrendDeclining)
	}
	joined := strings.Join(m.Recommendations, " | ")
	if !strings.Contains(joined, "declining") {
		t.Errorf("expected a declining-quality recommendation, got %q", joined)
	}
	if !strings.Contains(joined, "slowly and clearly") {
		t.Errorf("expected a clarity recommendation, got %q", joined)
	}

	healthy := NewQualityTracker(QualityConfig{WindowSize: 10, TrendSpan: 3, TrendDelta: 0.05})
	for i := 0; i < 6; i++ {
		healthy.Record(0.9)
	}
	if recs := healthy.Metrics().Recommendations; len(recs) != 0 {
		t.Errorf("healthy window should have no recommendations, got %v", recs)
	}
}

func TestQualityTracker_ClampsAndReset(t *testing.T) {
	q := NewQualityTracker(DefaultQualityConfig())
	if s := q.Record(1.7); s.Confidence != 1 {
		t.Errorf("confidence clamped to %v, want 1", s.Confidence)
	}
	if s := q.Record(-0.2); s.Confidence != 0 {
		t.Errorf("confidence clamped to %v, want 0", s.Confidence)
	}

	q.Reset()
	m := q.Metrics()
	if m.TotalSamples != 2 {
		t.Errorf("TotalSamples = %d, want lifetime count preserved", m.TotalSamples)
	}
	if m.AverageConfidence != 0 || m.HighConfidenceCount != 0 {
		t.Errorf("window not cleared: %+v", m)
	}
}
