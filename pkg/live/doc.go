// Package live implements real-time voice turn-taking on top of a
// streaming transcription service.
//
// A session captures microphone audio, streams it to the service, folds
// the returned transcript fragments into an accumulated utterance, and
// decides when the speaker's turn is over. Completed turns are handed to
// a send callback exactly once.
//
// # Architecture
//
// The package is built from a few components:
//
//   - Session: the orchestrator; owns capture, the transcription link,
//     and all timers on a single run-loop goroutine
//   - Engine: the end-of-turn decision core; pure state + clock, no
//     goroutines, fed by the run loop
//   - QualityTracker: rolling window over transcript confidence with
//     trend detection and recommendations
//   - AudioBuffer: recent PCM with RMS/peak level measurement
//   - Metrics: optional Prometheus counters on a private registry
//
// # Data Flow
//
//	Mic → capture.Source → PCM frames → stt.Client → transcript events
//	                                                        │
//	        OnUtterance ← Session run loop ← Engine ←───────┘
//
// The run loop is the only goroutine that touches the Engine or the
// countdown and max-accumulation timers. Public methods post commands to
// it, which makes Session safe for concurrent use.
//
// # Turn Decisions
//
// Every final fragment is scored on a 0-100 end-of-turn scale built from
// observed silence, punctuation, completion and incompletion phrase
// tables, length, and discourse markers. Fragments that read as natural
// breaks send immediately; sendable utterances arm a countdown whose
// duration shrinks as the score's confidence grows; everything else
// accumulates under a hard max-accumulation window so no speech is held
// back forever.
//
// # Usage
//
//	cfg := live.DefaultSessionConfig()
//	cfg.Token = stt.StaticToken(apiKey)
//	cfg.OnUtterance = func(text string) {
//	    fmt.Println("turn:", text)
//	}
//
//	session, err := live.NewSession(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := session.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()
//
//	for event := range session.Events() {
//	    switch e := event.(type) {
//	    case *live.TranscriptUpdateEvent:
//	        fmt.Println("heard:", e.Text)
//	    case *live.UtteranceSentEvent:
//	        fmt.Println("sent:", e.Text)
//	    }
//	}
package live
