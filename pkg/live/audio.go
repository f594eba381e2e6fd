package live

import (
	"math"
	"sync"
	"time"

	"github.com/brightline-ai/voiceturn/pkg/capture"
)

// CalculateRMSEnergy computes the root-mean-square energy of 16-bit signed
// little-endian PCM. Returns a value between 0.0 and 1.0.
func CalculateRMSEnergy(pcm []byte) float64 {
	samples := len(pcm) / 2
	if samples == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		normalized := float64(sample) / 32768.0
		sum += normalized * normalized
	}

	return math.Sqrt(sum / float64(samples))
}

// CalculatePeakAmplitude returns the maximum absolute amplitude in the PCM
// data, between 0.0 and 1.0.
func CalculatePeakAmplitude(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}

	var maxAbs float64
	for i := 0; i < len(pcm)-1; i += 2 {
		sample := int16(pcm[i]) | int16(pcm[i+1])<<8
		// float64 to avoid overflow when negating -32768
		abs := math.Abs(float64(sample))
		if abs > maxAbs {
			maxAbs = abs
		}
	}

	return maxAbs / 32768.0
}

// AudioBuffer accumulates PCM frames up to a bounded duration, discarding
// the oldest bytes on overflow. Used by diagnostics; the live pipeline
// never retains frames.
type AudioBuffer struct {
	mu       sync.Mutex
	data     []byte
	maxBytes int
	cfg      capture.Config
}

// NewAudioBuffer creates a buffer holding up to maxDuration of audio in the
// given format.
func NewAudioBuffer(cfg capture.Config, maxDuration time.Duration) *AudioBuffer {
	maxBytes := cfg.BytesPerSecond() * int(maxDuration/time.Millisecond) / 1000
	return &AudioBuffer{
		data:     make([]byte, 0, maxBytes),
		maxBytes: maxBytes,
		cfg:      cfg,
	}
}

// Write appends audio data, trimming the oldest bytes past the cap.
func (b *AudioBuffer) Write(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.data = append(b.data, data...)
	if len(b.data) > b.maxBytes {
		excess := len(b.data) - b.maxBytes
		b.data = b.data[excess:]
	}
}

// Bytes returns a copy of the buffered audio.
func (b *AudioBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Len returns the buffered byte count.
func (b *AudioBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// Duration returns how much audio is buffered.
func (b *AudioBuffer) Duration() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	bps := b.cfg.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(len(b.data)) * time.Second / time.Duration(bps)
}

// Clear empties the buffer.
func (b *AudioBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = b.data[:0]
}

// RMSEnergy returns the RMS energy of the buffered audio.
func (b *AudioBuffer) RMSEnergy() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return CalculateRMSEnergy(b.data)
}

// PeakAmplitude returns the peak amplitude of the buffered audio.
func (b *AudioBuffer) PeakAmplitude() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return CalculatePeakAmplitude(b.data)
}

// levelMeter rates capture level readings, passing at most one per
// interval. Owned by the session loop; not safe for concurrent use.
type levelMeter struct {
	interval time.Duration
	last     time.Time
}

func newLevelMeter(interval time.Duration) *levelMeter {
	return &levelMeter{interval: interval}
}

// sample measures a frame. ok is false while throttled.
func (m *levelMeter) sample(frame []byte, now time.Time) (rms, peak float64, ok bool) {
	if now.Sub(m.last) < m.interval {
		return 0, 0, false
	}
	m.last = now
	return CalculateRMSEnergy(frame), CalculatePeakAmplitude(frame), true
}
