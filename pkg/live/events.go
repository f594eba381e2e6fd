package live

import "time"

// Event is the interface for all live session events.
type Event interface {
	// EventType returns the event type string for serialization.
	EventType() string
}

// SessionBeganEvent is emitted when the transcription service confirms the
// session.
type SessionBeganEvent struct {
	SessionID string `json:"session_id"`
	RemoteID  string `json:"remote_id,omitempty"`
}

func (e *SessionBeganEvent) EventType() string { return "session.began" }

// StateChangedEvent is emitted when the session state changes.
type StateChangedEvent struct {
	From SessionState `json:"from"`
	To   SessionState `json:"to"`
}

func (e *StateChangedEvent) EventType() string { return "state.changed" }

// TranscriptUpdateEvent is emitted for every recognition result. Interim
// results replace the interim display text; final results extend the
// accumulated utterance.
type TranscriptUpdateEvent struct {
	Text       string  `json:"text"`
	Final      bool    `json:"final,omitempty"`
	Confidence float64 `json:"confidence"`
	SpeakerID  string  `json:"speaker_id,omitempty"`
}

func (e *TranscriptUpdateEvent) EventType() string { return "transcript.update" }

// SentimentEvent relays a sentiment analysis result.
type SentimentEvent struct {
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

func (e *SentimentEvent) EventType() string { return "transcript.sentiment" }

// SpeakerLabelEvent relays a speaker attribution.
type SpeakerLabelEvent struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

func (e *SpeakerLabelEvent) EventType() string { return "transcript.speaker" }

// ContentSafetyEvent relays content-safety flags for a span of text.
type ContentSafetyEvent struct {
	Labels []string `json:"labels"`
}

func (e *ContentSafetyEvent) EventType() string { return "transcript.safety" }

// CountdownStartedEvent is emitted when an auto-send countdown is armed.
type CountdownStartedEvent struct {
	Duration  time.Duration `json:"duration"`
	Reason    string        `json:"reason"`
	Score     float64       `json:"score"`
	ExpiresAt time.Time     `json:"expires_at"`
}

func (e *CountdownStartedEvent) EventType() string { return "turn.countdown_started" }

// CountdownCancelledEvent is emitted when a pending countdown is superseded
// or cleared.
type CountdownCancelledEvent struct {
	Reason string `json:"reason"`
}

func (e *CountdownCancelledEvent) EventType() string { return "turn.countdown_cancelled" }

// UtteranceSentEvent is emitted when a completed turn is dispatched to the
// send callback. Forced marks the max-accumulation fallback.
type UtteranceSentEvent struct {
	UtteranceID string `json:"utterance_id"`
	Text        string `json:"text"`
	WordCount   int    `json:"word_count"`
	Trigger     string `json:"trigger"`
	Forced      bool   `json:"forced,omitempty"`
}

func (e *UtteranceSentEvent) EventType() string { return "turn.utterance_sent" }

// MutedEvent is emitted when mute toggles.
type MutedEvent struct {
	Muted bool `json:"muted"`
}

func (e *MutedEvent) EventType() string { return "session.muted" }

// QualityUpdatedEvent is emitted after each recorded confidence sample.
type QualityUpdatedEvent struct {
	Metrics QualityMetrics `json:"metrics"`
}

func (e *QualityUpdatedEvent) EventType() string { return "quality.updated" }

// AudioLevelEvent reports capture level, throttled to one per interval.
type AudioLevelEvent struct {
	RMS  float64 `json:"rms"`
	Peak float64 `json:"peak"`
}

func (e *AudioLevelEvent) EventType() string { return "audio.level" }

// ErrorEvent surfaces a terminal session error.
type ErrorEvent struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ErrorEvent) EventType() string { return "session.error" }

// SessionClosedEvent is the last event a session emits.
type SessionClosedEvent struct {
	Reason string `json:"reason,omitempty"`
}

func (e *SessionClosedEvent) EventType() string { return "session.closed" }

// DebugEvent carries diagnostic detail for operators.
type DebugEvent struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

func (e *DebugEvent) EventType() string { return "debug" }
