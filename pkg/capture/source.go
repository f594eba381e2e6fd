// Package capture acquires microphone audio and encodes it into the
// fixed-size 16 kHz mono 16-bit little-endian PCM frames the transcription
// service expects.
package capture

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DeviceErrorKind classifies device acquisition failures.
type DeviceErrorKind int

const (
	// DeviceErrorOther covers failures with no more specific classification.
	DeviceErrorOther DeviceErrorKind = iota
	// DeviceErrorPermissionDenied means the OS refused microphone access.
	DeviceErrorPermissionDenied
	// DeviceErrorNotFound means no capture device is available.
	DeviceErrorNotFound
)

// String returns a human-readable kind.
func (k DeviceErrorKind) String() string {
	switch k {
	case DeviceErrorPermissionDenied:
		return "PERMISSION_DENIED"
	case DeviceErrorNotFound:
		return "NOT_FOUND"
	default:
		return "OTHER"
	}
}

// DeviceError reports a microphone acquisition or capture failure.
type DeviceError struct {
	Kind DeviceErrorKind
	Err  error
}

// Error implements the error interface.
func (e *DeviceError) Error() string {
	switch e.Kind {
	case DeviceErrorPermissionDenied:
		return fmt.Sprintf("microphone access denied: %v", e.Err)
	case DeviceErrorNotFound:
		return fmt.Sprintf("no microphone found: %v", e.Err)
	default:
		return fmt.Sprintf("microphone error: %v", e.Err)
	}
}

// Unwrap returns the underlying cause.
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// classifyDeviceError maps backend error text onto the taxonomy. miniaudio
// reports failures as strings, so matching is best-effort.
func classifyDeviceError(err error) *DeviceError {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "access denied"), strings.Contains(msg, "permission"):
		return &DeviceError{Kind: DeviceErrorPermissionDenied, Err: err}
	case strings.Contains(msg, "no device"), strings.Contains(msg, "device not found"), strings.Contains(msg, "no backend"):
		return &DeviceError{Kind: DeviceErrorNotFound, Err: err}
	default:
		return &DeviceError{Kind: DeviceErrorOther, Err: err}
	}
}

// Source is a stream of encoded audio frames. Implementations own an
// exclusive hardware resource between Start and Stop.
type Source interface {
	// Start begins capture. It fails with *DeviceError when the device
	// cannot be acquired.
	Start(ctx context.Context) error
	// Frames returns the frame stream. The channel is closed by Stop.
	Frames() <-chan []byte
	// Stop releases the device. It is idempotent and must be called on
	// every exit path of the owner.
	Stop() error
}

// Config controls a capture source.
type Config struct {
	// SampleRate is the output rate of emitted frames, in Hz.
	SampleRate int `json:"sample_rate"`
	// CaptureRate is the rate requested from the device, in Hz.
	CaptureRate int `json:"capture_rate"`
	// Channels is the number of device channels before downmix.
	Channels int `json:"channels"`
	// FrameDuration is the length of each emitted frame.
	FrameDuration time.Duration `json:"frame_duration"`
}

// DefaultConfig returns the standard capture configuration: 16 kHz mono
// frames of 100 ms, captured at 48 kHz.
func DefaultConfig() Config {
	return Config{
		SampleRate:    16000,
		CaptureRate:   48000,
		Channels:      1,
		FrameDuration: 100 * time.Millisecond,
	}
}

// BytesPerSecond returns the output byte rate (16-bit mono).
func (c Config) BytesPerSecond() int {
	return c.SampleRate * 2
}

// FrameBytes returns the byte length of one emitted frame.
func (c Config) FrameBytes() int {
	return c.BytesPerSecond() * int(c.FrameDuration/time.Millisecond) / 1000
}
