package stt

import (
	"encoding/json"
	"fmt"
)

// Event is a typed inbound message from the transcription service.
type Event interface {
	EventType() string
}

// BeginEvent announces a live transcription session.
type BeginEvent struct {
	SessionID string
	ExpiresAt string
}

// EventType returns the event type identifier.
func (e *BeginEvent) EventType() string { return "session_begin" }

// TranscriptEvent carries a partial or final recognition result.
type TranscriptEvent struct {
	Text        string
	Confidence  float64
	Final       bool
	SpeakerID   string
	TimestampMs int64
}

// EventType returns the event type identifier.
func (e *TranscriptEvent) EventType() string { return "transcript" }

// SentimentEvent carries per-span sentiment analysis.
type SentimentEvent struct {
	Text       string
	Sentiment  string
	Confidence float64
}

// EventType returns the event type identifier.
func (e *SentimentEvent) EventType() string { return "sentiment" }

// SpeakerLabelEvent attributes a span of text to a speaker.
type SpeakerLabelEvent struct {
	Speaker string
	Text    string
}

// EventType returns the event type identifier.
func (e *SpeakerLabelEvent) EventType() string { return "speaker_label" }

// SafetyLabel is one content-safety classification.
type SafetyLabel struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Severity   float64 `json:"severity"`
}

// ContentSafetyEvent flags a span of text.
type ContentSafetyEvent struct {
	Labels []SafetyLabel
}

// EventType returns the event type identifier.
func (e *ContentSafetyEvent) EventType() string { return "content_safety" }

// ErrorEvent is an in-band protocol error. The session stays open.
type ErrorEvent struct {
	Message string
}

// EventType returns the event type identifier.
func (e *ErrorEvent) EventType() string { return "error" }

// ClosedEvent is the terminal event: the socket closed. Err is nil for a
// normal closure and a *CloseError otherwise.
type ClosedEvent struct {
	Code   int
	Reason string
	Err    error
}

// EventType returns the event type identifier.
func (e *ClosedEvent) EventType() string { return "closed" }

// envelope is the superset of inbound message fields. Messages are keyed by
// "type"; a message without a known type but with a "transcript" field is a
// transcript (legacy shape), so that field is a pointer to detect presence.
type envelope struct {
	Type       string        `json:"type"`
	SessionID  string        `json:"session_id"`
	ExpiresAt  string        `json:"expires_at"`
	Transcript *string       `json:"transcript"`
	Confidence float64       `json:"confidence"`
	IsFinal    bool          `json:"is_final"`
	Speaker    string        `json:"speaker"`
	AudioStart int64         `json:"audio_start"`
	Text       string        `json:"text"`
	Sentiment  string        `json:"sentiment"`
	Labels     []SafetyLabel `json:"labels"`
	Error      string        `json:"error"`
}

// DecodeEvent parses one inbound JSON message into a typed event.
// Unrecognized messages return an error; callers skip them rather than
// terminating the session.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	switch env.Type {
	case "session_begin":
		return &BeginEvent{SessionID: env.SessionID, ExpiresAt: env.ExpiresAt}, nil

	case "partial_transcript":
		return transcriptFrom(env, false), nil

	case "final_transcript":
		return transcriptFrom(env, true), nil

	case "transcript":
		return transcriptFrom(env, env.IsFinal), nil

	case "sentiment":
		return &SentimentEvent{Text: env.Text, Sentiment: env.Sentiment, Confidence: env.Confidence}, nil

	case "speaker_label":
		return &SpeakerLabelEvent{Speaker: env.Speaker, Text: env.Text}, nil

	case "content_safety":
		return &ContentSafetyEvent{Labels: env.Labels}, nil

	case "error":
		msg := env.Error
		if msg == "" {
			msg = env.Text
		}
		return &ErrorEvent{Message: msg}, nil

	case "":
		if env.Transcript != nil {
			return transcriptFrom(env, env.IsFinal), nil
		}
		return nil, fmt.Errorf("message has no type")

	default:
		return nil, fmt.Errorf("unknown message type %q", env.Type)
	}
}

func transcriptFrom(env envelope, final bool) *TranscriptEvent {
	text := env.Text
	if env.Transcript != nil {
		text = *env.Transcript
	}
	return &TranscriptEvent{
		Text:        text,
		Confidence:  env.Confidence,
		Final:       final,
		SpeakerID:   env.Speaker,
		TimestampMs: env.AudioStart,
	}
}
