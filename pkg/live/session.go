package live

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/brightline-ai/voiceturn/pkg/capture"
	"github.com/brightline-ai/voiceturn/pkg/stt"
)

// Snapshot is a read-only view of session state for external display.
type Snapshot struct {
	State             SessionState   `json:"state"`
	IsListening       bool           `json:"is_listening"`
	IsMuted           bool           `json:"is_muted"`
	Transcript        string         `json:"transcript"`
	InterimTranscript string         `json:"interim_transcript"`
	AutoSendCountdown int            `json:"auto_send_countdown"`
	AutoSendReason    string         `json:"auto_send_reason,omitempty"`
	Quality           QualityMetrics `json:"quality"`
}

// transcriptionLink is the slice of stt.Client the session drives. Tests
// substitute a loopback implementation.
type transcriptionLink interface {
	Open(ctx context.Context, token string) error
	Events() <-chan stt.Event
	SendFrame(frame []byte)
	Close() error
}

type commandKind int

const (
	cmdSetMuted commandKind = iota
	cmdToggleMute
	cmdSend
	cmdReset
)

type command struct {
	kind  commandKind
	muted bool
}

// Session wires microphone capture, the transcription link, and the turn
// engine into one running conversation side. A single goroutine owns all
// decision state and timers; public methods post commands to it, so they
// are safe to call from anywhere.
type Session struct {
	cfg     SessionConfig
	id      string
	source  capture.Source
	link    transcriptionLink
	newLink func(cfg stt.Config) transcriptionLink
	engine  *Engine
	quality *QualityTracker
	buffer  *AudioBuffer
	meter   *levelMeter
	metrics *Metrics
	now     func() time.Time

	events chan Event
	cmds   chan command

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	started atomic.Bool
	running atomic.Bool
	closed  atomic.Bool

	startedAt time.Time

	snapMu            sync.Mutex
	snapState         SessionState
	snapMuted         bool
	snapTranscript    string
	snapInterim       string
	countdownDeadline time.Time
	countdownReason   string
}

// NewSession validates cfg and builds a session in StateIdle.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.OnUtterance == nil {
		return nil, errors.New("session config: OnUtterance callback is required")
	}
	if cfg.Token == nil {
		return nil, errors.New("session config: Token provider is required")
	}
	src := cfg.Source
	if src == nil {
		src = capture.NewMicSource(cfg.Capture)
	}
	s := &Session{
		cfg:     cfg,
		id:      uuid.NewString(),
		source:  src,
		engine:  NewEngine(cfg.Turn),
		quality: NewQualityTracker(cfg.Quality),
		buffer:  NewAudioBuffer(cfg.Capture, 10*time.Second),
		meter:   newLevelMeter(200 * time.Millisecond),
		metrics: cfg.Metrics,
		now:     time.Now,
		events:  make(chan Event, 100),
		cmds:    make(chan command, 16),
		done:    make(chan struct{}),
	}
	s.newLink = func(linkCfg stt.Config) transcriptionLink {
		return stt.NewClient(linkCfg)
	}
	return s, nil
}

// ID returns the local session identifier.
func (s *Session) ID() string { return s.id }

// Start acquires a speech token, opens the transcription link, starts
// microphone capture, and launches the run loop. It fails without side
// effects: whatever did start is torn down again.
func (s *Session) Start(ctx context.Context) error {
	if s.closed.Load() {
		return errors.New("session already stopped")
	}
	if !s.started.CompareAndSwap(false, true) {
		return errors.New("session already started")
	}

	token, err := s.cfg.Token.Token(ctx)
	if err != nil {
		s.metrics.RecordError(ErrToken)
		return fmt.Errorf("acquire speech token: %w", err)
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.link = s.newLink(s.cfg.Link)
	if err := s.link.Open(s.ctx, token); err != nil {
		s.cancel()
		s.metrics.RecordError(ErrNetwork)
		return fmt.Errorf("open transcription link: %w", err)
	}
	if err := s.source.Start(s.ctx); err != nil {
		_ = s.link.Close()
		s.cancel()
		s.metrics.RecordError(ErrDevice)
		return fmt.Errorf("start capture: %w", err)
	}

	s.startedAt = s.now()
	s.metrics.RecordSessionStart()
	s.setState(StateListening)
	s.running.Store(true)
	go s.run()
	return nil
}

// Events returns the session event stream. The channel closes after
// SessionClosedEvent. Slow consumers lose events rather than stalling the
// session; Snapshot always reflects current state.
func (s *Session) Events() <-chan Event { return s.events }

// Done closes when the run loop has fully exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// ToggleMute flips the mute flag.
func (s *Session) ToggleMute() { s.post(command{kind: cmdToggleMute}) }

// SetMuted sets the mute flag. Muting with a pending utterance forces a
// send.
func (s *Session) SetMuted(muted bool) { s.post(command{kind: cmdSetMuted, muted: muted}) }

// SendNow flushes the accumulated utterance immediately.
func (s *Session) SendNow() { s.post(command{kind: cmdSend}) }

// Reset discards the accumulated utterance without sending.
func (s *Session) Reset() { s.post(command{kind: cmdReset}) }

// Stop shuts the session down and waits for the run loop to finish. Any
// pending accumulation is discarded, not sent. Safe to call more than once.
func (s *Session) Stop() error {
	if s.closed.CompareAndSwap(false, true) && s.cancel != nil {
		s.cancel()
	}
	if s.running.Load() {
		<-s.done
	}
	return nil
}

// Cancel discards the in-progress recording and tears the session down.
// Same path as Stop.
func (s *Session) Cancel() error { return s.Stop() }

// Close implements io.Closer.
func (s *Session) Close() error { return s.Stop() }

// Snapshot returns the current display state.
func (s *Session) Snapshot() Snapshot {
	s.snapMu.Lock()
	snap := Snapshot{
		State:             s.snapState,
		IsListening:       s.snapState == StateListening || s.snapState == StateMuted,
		IsMuted:           s.snapMuted,
		Transcript:        s.snapTranscript,
		InterimTranscript: s.snapInterim,
		AutoSendReason:    s.countdownReason,
	}
	if !s.countdownDeadline.IsZero() {
		if remaining := s.countdownDeadline.Sub(s.now()); remaining > 0 {
			snap.AutoSendCountdown = int((remaining + time.Second - 1) / time.Second)
		}
	}
	s.snapMu.Unlock()
	snap.Quality = s.quality.Metrics()
	return snap
}

func (s *Session) post(c command) {
	if s.ctx == nil {
		return
	}
	select {
	case s.cmds <- c:
	case <-s.ctx.Done():
	}
}

// emit never blocks the run loop; a full event buffer drops the event.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *Session) setState(to SessionState) {
	s.snapMu.Lock()
	from := s.snapState
	s.snapState = to
	s.snapMu.Unlock()
	if from != to {
		s.emit(&StateChangedEvent{From: from, To: to})
	}
}

func (s *Session) publishSnapshot() {
	s.snapMu.Lock()
	s.snapTranscript = s.engine.Transcript()
	s.snapInterim = s.engine.Interim()
	s.snapMuted = s.engine.Muted()
	s.snapMu.Unlock()
}

func (s *Session) setCountdownSnap(deadline time.Time, reason string) {
	s.snapMu.Lock()
	s.countdownDeadline = deadline
	s.countdownReason = reason
	s.snapMu.Unlock()
}

func (s *Session) clearCountdownSnap() {
	s.snapMu.Lock()
	s.countdownDeadline = time.Time{}
	s.countdownReason = ""
	s.snapMu.Unlock()
}

func (s *Session) reportError(kind ErrorKind, message string) {
	s.metrics.RecordError(kind)
	s.emit(&ErrorEvent{Kind: kind, Message: message})
	if s.cfg.OnError != nil {
		s.cfg.OnError(kind, message)
	}
}

// classifyClose maps a link close code onto an error kind.
func classifyClose(code int) ErrorKind {
	switch {
	case code == stt.CloseInvalidCredential || code == stt.CloseQuotaExceeded:
		return ErrToken
	case code >= 3000:
		return ErrProtocol
	default:
		return ErrNetwork
	}
}

// run is the session's single decision goroutine. It owns the turn engine
// and both timers; everything else posts commands or feeds channels.
func (s *Session) run() {
	var (
		countdownTimer  *time.Timer
		countdownActive bool
		maxTimer        *time.Timer
		maxActive       bool
		pendingSends    []Decision
		utteranceCount  int

		closeReason = "stopped"
		endStatus   = "completed"
	)

	frames := s.source.Frames()
	linkEvents := s.link.Events()

	defer func() {
		if countdownTimer != nil {
			countdownTimer.Stop()
		}
		if maxTimer != nil {
			maxTimer.Stop()
		}
		_ = s.source.Stop()
		_ = s.link.Close()
		s.metrics.RecordSessionEnd(endStatus, s.now().Sub(s.startedAt))
		s.setState(StateStopped)
		s.emit(&SessionClosedEvent{Reason: closeReason})
		close(s.events)
		close(s.done)
	}()

	stopTimer := func(t **time.Timer, active *bool) {
		if *t == nil {
			return
		}
		if !(*t).Stop() {
			select {
			case <-(*t).C:
			default:
			}
		}
		*active = false
	}
	resetTimer := func(t **time.Timer, active *bool, d time.Duration) {
		if d < 0 {
			d = 0
		}
		if *t == nil {
			*t = time.NewTimer(d)
			*active = true
			return
		}
		if !(*t).Stop() {
			select {
			case <-(*t).C:
			default:
			}
		}
		(*t).Reset(d)
		*active = true
	}
	countdownCh := func() <-chan time.Time {
		if !countdownActive || countdownTimer == nil {
			return nil
		}
		return countdownTimer.C
	}
	maxCh := func() <-chan time.Time {
		if !maxActive || maxTimer == nil {
			return nil
		}
		return maxTimer.C
	}

	nextUtteranceID := func() string {
		utteranceCount++
		return fmt.Sprintf("u_%d", utteranceCount)
	}

	cancelCountdown := func(reason string) {
		if !countdownActive {
			return
		}
		stopTimer(&countdownTimer, &countdownActive)
		s.clearCountdownSnap()
		s.metrics.RecordCountdown("cancelled")
		s.emit(&CountdownCancelledEvent{Reason: reason})
	}

	startCountdown := func(dec Decision) {
		resetTimer(&countdownTimer, &countdownActive, dec.Countdown)
		deadline := s.now().Add(dec.Countdown)
		s.setCountdownSnap(deadline, dec.Reason)
		s.emit(&CountdownStartedEvent{
			Duration:  dec.Countdown,
			Reason:    dec.Reason,
			Score:     dec.Score.Value,
			ExpiresAt: deadline,
		})
	}

	dispatch := func(dec Decision) {
		cancelCountdown("utterance sent")
		stopTimer(&maxTimer, &maxActive)
		words := WordCount(dec.Text)
		s.metrics.RecordUtterance(dec.Trigger, words)
		s.emit(&UtteranceSentEvent{
			UtteranceID: nextUtteranceID(),
			Text:        dec.Text,
			WordCount:   words,
			Trigger:     dec.Trigger,
			Forced:      dec.Trigger == TriggerMaxWindow,
		})
		s.cfg.OnUtterance(dec.Text)
		s.publishSnapshot()
	}

	applyTurnDecision := func(dec Decision) {
		if dec.ArmMax {
			resetTimer(&maxTimer, &maxActive, dec.MaxDelay)
			s.emit(&DebugEvent{
				Category: "turn",
				Message:  fmt.Sprintf("accumulation window armed for %s", dec.MaxDelay.Round(time.Millisecond)),
			})
		}
		switch {
		case dec.Send && dec.Trigger == TriggerMute:
			// The forced send runs on the next loop pass, outside the
			// mute command's own processing.
			cancelCountdown("muted")
			pendingSends = append(pendingSends, dec)
		case dec.Send:
			dispatch(dec)
		case dec.StartCountdown:
			startCountdown(dec)
		case dec.CancelCountdown:
			cancelCountdown("transcript changed")
		}
	}

	handleTranscript := func(m *stt.TranscriptEvent) {
		text := strings.TrimSpace(m.Text)
		if !m.Final {
			if text == "" {
				return
			}
			s.metrics.RecordTranscript("partial", m.Confidence)
			s.engine.HandleInterim(text)
			s.emit(&TranscriptUpdateEvent{Text: text, Confidence: m.Confidence, SpeakerID: m.SpeakerID})
			s.publishSnapshot()
			return
		}
		s.metrics.RecordTranscript("final", m.Confidence)
		s.quality.Record(m.Confidence)
		s.emit(&TranscriptUpdateEvent{Text: text, Final: true, Confidence: m.Confidence, SpeakerID: m.SpeakerID})
		s.emit(&QualityUpdatedEvent{Metrics: s.quality.Metrics()})
		if s.engine.Muted() {
			return
		}
		dec := s.engine.HandleFinal(text)
		s.metrics.RecordScore(dec.Score.Value)
		applyTurnDecision(dec)
		s.publishSnapshot()
	}

	for {
		// Queued sends drain before any new input is considered.
		if len(pendingSends) > 0 {
			dec := pendingSends[0]
			pendingSends = pendingSends[1:]
			if dec.Text != "" {
				dispatch(dec)
			}
			continue
		}

		select {
		case <-s.ctx.Done():
			return

		case cmd := <-s.cmds:
			switch cmd.kind {
			case cmdSetMuted, cmdToggleMute:
				muted := cmd.muted
				if cmd.kind == cmdToggleMute {
					muted = !s.engine.Muted()
				}
				if muted == s.engine.Muted() {
					continue
				}
				dec := s.engine.SetMuted(muted)
				if muted {
					s.setState(StateMuted)
				} else {
					s.setState(StateListening)
				}
				s.emit(&MutedEvent{Muted: muted})
				applyTurnDecision(dec)
				s.publishSnapshot()

			case cmdSend:
				if dec := s.engine.ManualSend(); dec.Send {
					dispatch(dec)
				}

			case cmdReset:
				s.engine.Reset()
				cancelCountdown("reset")
				stopTimer(&maxTimer, &maxActive)
				s.publishSnapshot()
			}

		case frame, ok := <-frames:
			if !ok {
				frames = nil
				continue
			}
			s.link.SendFrame(frame)
			s.metrics.RecordAudio(len(frame))
			s.buffer.Write(frame)
			if rms, peak, ok := s.meter.sample(frame, s.now()); ok {
				s.emit(&AudioLevelEvent{RMS: rms, Peak: peak})
			}

		case ev, ok := <-linkEvents:
			if !ok {
				closeReason = "link closed"
				return
			}
			switch m := ev.(type) {
			case *stt.BeginEvent:
				s.emit(&SessionBeganEvent{SessionID: s.id, RemoteID: m.SessionID})

			case *stt.TranscriptEvent:
				handleTranscript(m)

			case *stt.SentimentEvent:
				s.emit(&SentimentEvent{Text: m.Text, Sentiment: m.Sentiment, Confidence: m.Confidence})

			case *stt.SpeakerLabelEvent:
				s.emit(&SpeakerLabelEvent{Speaker: m.Speaker, Text: m.Text})

			case *stt.ContentSafetyEvent:
				labels := make([]string, 0, len(m.Labels))
				for _, l := range m.Labels {
					labels = append(labels, l.Label)
				}
				s.emit(&ContentSafetyEvent{Labels: labels})

			case *stt.ErrorEvent:
				s.reportError(ErrProtocol, m.Message)

			case *stt.ClosedEvent:
				if m.Err != nil {
					endStatus = "error"
					closeReason = m.Err.Error()
					s.reportError(classifyClose(m.Code), closeReason)
				} else {
					closeReason = "link closed"
				}
				return
			}

		case <-countdownCh():
			countdownActive = false
			s.clearCountdownSnap()
			s.metrics.RecordCountdown("fired")
			if dec := s.engine.CountdownExpired(); dec.Send {
				dispatch(dec)
			}

		case <-maxCh():
			maxActive = false
			if dec := s.engine.MaxWindowExpired(); dec.Send {
				dispatch(dec)
			}
		}
	}
}
