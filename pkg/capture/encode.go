package capture

import (
	"encoding/binary"
	"math"
)

// DecodeF32 converts little-endian float32 sample bytes to a float slice.
// Trailing partial samples are ignored.
func DecodeF32(data []byte) []float32 {
	n := len(data) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(data[i*4:])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

// DownmixMono averages interleaved channels into a single channel.
// Input length that is not a multiple of channels drops the remainder.
func DownmixMono(in []float32, channels int) []float32 {
	if channels <= 1 {
		return in
	}
	n := len(in) / channels
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += in[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// ResampleLinear converts samples from one rate to another by linear
// interpolation. Resampling is per-chunk: the last input sample is held for
// output positions past the final interpolation interval.
func ResampleLinear(in []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(in) == 0 || fromRate <= 0 || toRate <= 0 {
		return in
	}
	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(in)) / ratio)
	if outLen == 0 {
		outLen = 1
	}
	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(in)-1 {
			out[i] = in[len(in)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = in[j]*(1-frac) + in[j+1]*frac
	}
	return out
}

// EncodePCM16 clamps float samples to [-1, 1] and scales them to signed
// 16-bit little-endian PCM. Negative samples scale by 0x8000 and
// non-negative by 0x7FFF so both ends of the range are reachable.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		var v int16
		if s < 0 {
			v = int16(s * 0x8000)
		} else {
			v = int16(s * 0x7FFF)
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out
}

// framer accumulates encoded PCM bytes and cuts exact frame-length chunks.
type framer struct {
	size    int
	pending []byte
}

func newFramer(size int) *framer {
	return &framer{size: size}
}

// push appends data and returns every complete frame now available.
func (f *framer) push(data []byte) [][]byte {
	f.pending = append(f.pending, data...)
	var frames [][]byte
	for len(f.pending) >= f.size {
		frame := make([]byte, f.size)
		copy(frame, f.pending[:f.size])
		f.pending = f.pending[f.size:]
		frames = append(frames, frame)
	}
	return frames
}
