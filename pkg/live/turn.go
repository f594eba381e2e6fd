package live

import (
	"fmt"
	"strings"
	"time"
)

// Send triggers, reported on UtteranceSentEvent.
const (
	TriggerNaturalBreak = "natural_break"
	TriggerCountdown    = "countdown"
	TriggerMaxWindow    = "max_accumulation"
	TriggerMute         = "mute"
	TriggerManual       = "manual"
)

// Decision is the engine's verdict after one input. The session loop
// carries it out: dispatch the send, restart or cancel the countdown
// timer, arm the max-accumulation timer.
type Decision struct {
	Send    bool
	Text    string
	Trigger string

	StartCountdown bool
	Countdown      time.Duration
	Reason         string

	CancelCountdown bool

	ArmMax   bool
	MaxDelay time.Duration

	Score Score
}

// Engine is the end-of-turn decision core. It owns no goroutines and no
// timers: the session loop feeds it transcript activity and timer
// expiries, and it answers with Decisions. All methods must be called
// from one goroutine; the session run loop is that goroutine.
type Engine struct {
	cfg TurnConfig
	now func() time.Time

	text         string
	interim      string
	muted        bool
	lastActivity time.Time
	accumStart   time.Time
	maxArmed     bool
}

// NewEngine returns an engine with an empty utterance.
func NewEngine(cfg TurnConfig) *Engine {
	e := &Engine{cfg: cfg, now: time.Now}
	e.lastActivity = e.now()
	return e
}

// HandleFinal folds a final transcript fragment into the accumulated
// utterance and decides what happens next: send immediately on a natural
// break, restart the silence countdown when the utterance is sendable,
// or just keep accumulating under the max-accumulation window.
func (e *Engine) HandleFinal(text string) Decision {
	if e.muted {
		return Decision{}
	}
	now := e.now()
	fragment := strings.TrimSpace(text)
	if fragment == "" {
		e.lastActivity = now
		return Decision{}
	}
	silence := now.Sub(e.lastActivity)
	e.lastActivity = now

	if e.text == "" {
		e.text = fragment
		e.accumStart = now
	} else {
		e.text += " " + fragment
	}
	e.interim = ""

	score := ScoreEndOfTurn(e.text, silence, e.cfg)
	dec := Decision{Score: score}

	if ShouldAutoSend(e.text, e.cfg) {
		if IsNaturalBreak(fragment) {
			dec.Send = true
			dec.Text = e.take()
			dec.Trigger = TriggerNaturalBreak
			dec.CancelCountdown = true
			return dec
		}
		dec.StartCountdown = true
		dec.Countdown = time.Duration(float64(e.cfg.SilenceThreshold) * score.CountdownMultiplier())
		dec.Reason = fmt.Sprintf("end of turn (%.0f%%)", score.Value)
	} else {
		// New text invalidates any countdown started for the shorter
		// utterance.
		dec.CancelCountdown = true
	}

	if !e.maxArmed {
		e.maxArmed = true
		dec.ArmMax = true
		dec.MaxDelay = e.cfg.MaxAccumulation - now.Sub(e.accumStart)
		if dec.MaxDelay < 0 {
			dec.MaxDelay = 0
		}
	}
	return dec
}

// HandleInterim records in-progress text. Interim fragments never trigger
// sends; they only refresh the activity clock the silence score reads.
func (e *Engine) HandleInterim(text string) {
	if e.muted {
		return
	}
	t := strings.TrimSpace(text)
	if t == "" {
		return
	}
	e.interim = t
	e.lastActivity = e.now()
}

// SetMuted flips the mute flag. Muting with a pending utterance forces a
// send; the session loop queues that send so it runs outside the caller's
// stack.
func (e *Engine) SetMuted(muted bool) Decision {
	if e.muted == muted {
		return Decision{}
	}
	e.muted = muted
	if !muted {
		e.lastActivity = e.now()
		return Decision{}
	}
	dec := Decision{CancelCountdown: true}
	if e.text != "" {
		dec.Send = true
		dec.Text = e.take()
		dec.Trigger = TriggerMute
	}
	return dec
}

// ManualSend flushes the accumulated utterance unconditionally. Available
// muted or not.
func (e *Engine) ManualSend() Decision {
	if e.text == "" {
		return Decision{}
	}
	return Decision{
		Send:            true,
		Text:            e.take(),
		Trigger:         TriggerManual,
		CancelCountdown: true,
	}
}

// CountdownExpired is called by the loop when the silence countdown fires.
func (e *Engine) CountdownExpired() Decision {
	if e.text == "" {
		return Decision{}
	}
	return Decision{Send: true, Text: e.take(), Trigger: TriggerCountdown}
}

// MaxWindowExpired is called by the loop when the max-accumulation timer
// fires: whatever has built up goes out, sendable or not.
func (e *Engine) MaxWindowExpired() Decision {
	if e.text == "" {
		e.maxArmed = false
		return Decision{}
	}
	return Decision{
		Send:            true,
		Text:            e.take(),
		Trigger:         TriggerMaxWindow,
		CancelCountdown: true,
	}
}

// Reset discards the accumulated utterance without sending.
func (e *Engine) Reset() Decision {
	e.take()
	e.lastActivity = e.now()
	return Decision{CancelCountdown: true}
}

// take clears the accumulation state and returns the utterance text.
func (e *Engine) take() string {
	text := e.text
	e.text = ""
	e.interim = ""
	e.maxArmed = false
	e.accumStart = time.Time{}
	return text
}

// Transcript returns the accumulated utterance so far.
func (e *Engine) Transcript() string { return e.text }

// Interim returns the current in-progress fragment.
func (e *Engine) Interim() string { return e.interim }

// Muted reports the mute flag.
func (e *Engine) Muted() bool { return e.muted }

// Pending reports whether any utterance text is waiting.
func (e *Engine) Pending() bool { return e.text != "" }
