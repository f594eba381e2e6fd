package live

import (
	"fmt"
	"time"

	"github.com/brightline-ai/voiceturn/internal/env"
	"github.com/brightline-ai/voiceturn/pkg/capture"
	"github.com/brightline-ai/voiceturn/pkg/stt"
)

// SessionState represents the current state of a live session.
type SessionState int

const (
	// StateIdle is the initial state before the session is started.
	StateIdle SessionState = iota
	// StateListening is when capture is active and turns are detected.
	StateListening
	// StateMuted is listening with send decisions suspended.
	StateMuted
	// StateStopped is terminal; all resources are released.
	StateStopped
)

// String returns a human-readable state name.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateListening:
		return "LISTENING"
	case StateMuted:
		return "MUTED"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// TurnConfig controls end-of-turn scoring and auto-send decisions.
type TurnConfig struct {
	// SilenceThreshold normalizes the silence score and is the base
	// countdown duration. Default: 2s.
	SilenceThreshold time.Duration `json:"silence_threshold"`

	// ScoreThreshold is the end-of-turn score at or above which an
	// utterance counts as complete. Default: 60.
	ScoreThreshold float64 `json:"score_threshold"`

	// MinWords is the minimum word count before any automatic send logic
	// applies. Default: 8.
	MinWords int `json:"min_words"`

	// MaxAccumulation bounds how long an utterance can accumulate before a
	// send is forced regardless of heuristics. Default: 15s.
	MaxAccumulation time.Duration `json:"max_accumulation"`
}

// DefaultTurnConfig returns a TurnConfig with the standard thresholds.
func DefaultTurnConfig() TurnConfig {
	return TurnConfig{
		SilenceThreshold: 2 * time.Second,
		ScoreThreshold:   60,
		MinWords:         8,
		MaxAccumulation:  15 * time.Second,
	}
}

// QualityConfig controls the rolling transcription-quality window.
type QualityConfig struct {
	// WindowSize is how many samples the rolling window keeps. Default: 30.
	WindowSize int `json:"window_size"`

	// TrendSpan is how many recent samples the trend compares against the
	// preceding span. Default: 10.
	TrendSpan int `json:"trend_span"`

	// TrendDelta is the mean-confidence change that counts as a trend.
	// Default: 0.05.
	TrendDelta float64 `json:"trend_delta"`
}

// DefaultQualityConfig returns a QualityConfig with the standard window.
func DefaultQualityConfig() QualityConfig {
	return QualityConfig{
		WindowSize: 30,
		TrendSpan:  10,
		TrendDelta: 0.05,
	}
}

// ErrorKind classifies errors surfaced through OnError.
type ErrorKind string

const (
	// ErrDevice covers microphone acquisition and capture failures.
	ErrDevice ErrorKind = "device"
	// ErrToken covers speech-token acquisition failures.
	ErrToken ErrorKind = "token"
	// ErrProtocol covers coded closures from the transcription service.
	ErrProtocol ErrorKind = "protocol"
	// ErrNetwork covers generic socket failures.
	ErrNetwork ErrorKind = "network"
)

// SessionConfig holds all configuration for a live session.
type SessionConfig struct {
	// Capture configures the audio source.
	Capture capture.Config `json:"capture"`

	// Link configures the transcription socket.
	Link stt.Config `json:"link"`

	// Turn configures end-of-turn detection.
	Turn TurnConfig `json:"turn"`

	// Quality configures the rolling quality window.
	Quality QualityConfig `json:"quality"`

	// OnUtterance receives each completed turn, exactly once per turn.
	// Required for Start.
	OnUtterance func(text string) `json:"-"`

	// OnError surfaces terminal device, token, protocol, and network
	// errors. Optional.
	OnError func(kind ErrorKind, message string) `json:"-"`

	// Token supplies the socket credential, consulted once per Start.
	Token stt.TokenProvider `json:"-"`

	// Source overrides the capture device. Nil means a malgo MicSource
	// built from Capture.
	Source capture.Source `json:"-"`

	// Metrics records session counters. Nil disables recording.
	Metrics *Metrics `json:"-"`
}

// DefaultSessionConfig returns a SessionConfig with standard settings.
// Callbacks and the token provider must still be supplied.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Capture: capture.DefaultConfig(),
		Link:    stt.DefaultConfig(),
		Turn:    DefaultTurnConfig(),
		Quality: DefaultQualityConfig(),
	}
}

// LoadFromEnv builds a SessionConfig from VOICETURN_* environment
// variables on top of the defaults. The token provider comes from
// VOICETURN_TOKEN_URL, or ASSEMBLYAI_API_KEY for local development.
func LoadFromEnv() (SessionConfig, error) {
	cfg := DefaultSessionConfig()

	cfg.Link.URL = env.Or("VOICETURN_SERVICE_URL", cfg.Link.URL)
	cfg.Link.Sentiment = env.BoolOr("VOICETURN_SENTIMENT", false)
	cfg.Link.SpeakerLabels = env.BoolOr("VOICETURN_SPEAKER_LABELS", false)
	cfg.Link.ContentSafety = env.BoolOr("VOICETURN_CONTENT_SAFETY", false)

	cfg.Capture.SampleRate = env.IntOr("VOICETURN_SAMPLE_RATE", cfg.Capture.SampleRate)
	cfg.Capture.CaptureRate = env.IntOr("VOICETURN_CAPTURE_RATE", cfg.Capture.CaptureRate)
	cfg.Link.SampleRate = cfg.Capture.SampleRate

	cfg.Turn.SilenceThreshold = env.DurationOr("VOICETURN_SILENCE_THRESHOLD", cfg.Turn.SilenceThreshold)
	cfg.Turn.MaxAccumulation = env.DurationOr("VOICETURN_MAX_ACCUMULATION", cfg.Turn.MaxAccumulation)
	cfg.Turn.MinWords = env.IntOr("VOICETURN_MIN_WORDS", cfg.Turn.MinWords)
	cfg.Turn.ScoreThreshold = env.Float64Or("VOICETURN_SCORE_THRESHOLD", cfg.Turn.ScoreThreshold)

	if cfg.Turn.SilenceThreshold <= 0 {
		return cfg, fmt.Errorf("VOICETURN_SILENCE_THRESHOLD must be positive")
	}
	if cfg.Turn.MaxAccumulation <= 0 {
		return cfg, fmt.Errorf("VOICETURN_MAX_ACCUMULATION must be positive")
	}
	if cfg.Capture.SampleRate <= 0 {
		return cfg, fmt.Errorf("VOICETURN_SAMPLE_RATE must be positive")
	}

	tokenURL := env.Or("VOICETURN_TOKEN_URL", "")
	apiKey := env.Or("ASSEMBLYAI_API_KEY", "")
	switch {
	case tokenURL != "":
		cfg.Token = stt.NewTokenClient(tokenURL)
	case apiKey != "":
		cfg.Token = stt.StaticToken(apiKey)
	default:
		return cfg, fmt.Errorf("set VOICETURN_TOKEN_URL or ASSEMBLYAI_API_KEY")
	}

	return cfg, nil
}
