package stt

import (
	"fmt"

	"github.com/gorilla/websocket"
)

// Close codes defined by the transcription protocol.
const (
	CloseInvalidCredential = 4001
	CloseQuotaExceeded     = 4002
	CloseInvalidAudio      = 3005
	CloseSessionTimeout    = 4008
)

// CloseError reports a non-normal socket closure. The message mapping is an
// external protocol contract and must not change.
type CloseError struct {
	Code   int
	Reason string
}

// Error implements the error interface.
func (e *CloseError) Error() string {
	switch e.Code {
	case CloseInvalidCredential:
		return "Invalid AssemblyAI API key. Please check your configuration."
	case CloseQuotaExceeded:
		return "AssemblyAI quota exceeded. Please check your usage limits."
	case CloseInvalidAudio:
		return "Invalid audio data. Please check your microphone settings."
	case CloseSessionTimeout:
		return "Session timed out due to inactivity."
	default:
		if e.Code >= 4000 {
			return fmt.Sprintf("Transcription service error %d: %s", e.Code, e.Reason)
		}
		return "Disconnected from transcription service unexpectedly."
	}
}

// IsNormalClosure reports whether a close code represents a clean shutdown
// rather than an error.
func IsNormalClosure(code int) bool {
	return code == websocket.CloseNormalClosure || code == websocket.CloseGoingAway
}

// TokenError reports a speech-token acquisition failure.
type TokenError struct {
	Err error
}

// Error implements the error interface.
func (e *TokenError) Error() string {
	return fmt.Sprintf("speech token: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *TokenError) Unwrap() error {
	return e.Err
}
