package capture

import (
	"context"
	"errors"
	"sync"

	"github.com/gen2brain/malgo"
)

// MicSource captures from the default microphone via malgo (miniaudio).
// The device delivers float32 samples at the configured capture rate; the
// source downmixes, resamples to the output rate, encodes to PCM16, and
// emits fixed-size frames.
type MicSource struct {
	cfg Config

	mu      sync.Mutex
	mctx    *malgo.AllocatedContext
	device  *malgo.Device
	started bool
	stopped bool

	fr     *framer
	frames chan []byte
}

// NewMicSource returns an unstarted microphone source.
func NewMicSource(cfg Config) *MicSource {
	return &MicSource{
		cfg:    cfg,
		fr:     newFramer(cfg.FrameBytes()),
		frames: make(chan []byte, 32),
	}
}

// Start acquires the default capture device and begins emitting frames.
func (m *MicSource) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.New("capture: already started")
	}
	if m.stopped {
		return errors.New("capture: source is stopped")
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return classifyDeviceError(err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = uint32(m.cfg.Channels)
	deviceConfig.SampleRate = uint32(m.cfg.CaptureRate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			m.onData(input)
		},
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = mctx.Uninit()
		return classifyDeviceError(err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = mctx.Uninit()
		return classifyDeviceError(err)
	}

	m.mctx = mctx
	m.device = device
	m.started = true
	return nil
}

// onData runs on the audio thread. Frames are dropped, not blocked on,
// when the consumer lags.
func (m *MicSource) onData(input []byte) {
	samples := DecodeF32(input)
	mono := DownmixMono(samples, m.cfg.Channels)
	resampled := ResampleLinear(mono, m.cfg.CaptureRate, m.cfg.SampleRate)
	pcm := EncodePCM16(resampled)

	for _, frame := range m.fr.push(pcm) {
		select {
		case m.frames <- frame:
		default:
		}
	}
}

// Frames returns the frame stream. Closed by Stop.
func (m *MicSource) Frames() <-chan []byte {
	return m.frames
}

// Stop releases the device. Safe to call multiple times and before Start.
func (m *MicSource) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil
	}
	m.stopped = true

	// Device.Stop blocks until the audio thread quiesces, so no Data
	// callback can race the channel close below.
	if m.device != nil {
		_ = m.device.Stop()
		m.device.Uninit()
		m.device = nil
	}
	if m.mctx != nil {
		_ = m.mctx.Uninit()
		m.mctx = nil
	}
	close(m.frames)
	return nil
}
