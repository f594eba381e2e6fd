// Package main provides an interactive terminal client for voiceturn live
// sessions. It captures microphone audio, streams it for transcription, and
// prints each completed turn as the engine detects it.
//
// Usage:
//
//	go run ./cmd/voiceturn
//
// Environment variables:
//
//	ASSEMBLYAI_API_KEY       - transcription credential (local development)
//	VOICETURN_TOKEN_URL      - endpoint minting short-lived speech tokens
//	VOICETURN_METRICS_ADDR   - optional Prometheus listen address
//	VOICETURN_LOG_LEVEL      - debug, info, warn, error (default: info)
//	VOICETURN_LOG_FORMAT     - text or json (default: text)
//	(see live.LoadFromEnv for the tuning knobs)
//
// Controls:
//
//	m - toggle mute
//	s - send the accumulated utterance now
//	r - discard the accumulated utterance
//	i - print a session snapshot
//	q - quit
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/brightline-ai/voiceturn/internal/env"
	"github.com/brightline-ai/voiceturn/pkg/live"
)

func main() {
	_ = godotenv.Load()
	slog.SetDefault(setupLogger())

	cfg, err := live.LoadFromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	metrics := live.NewMetrics("")
	cfg.Metrics = metrics
	if addr := os.Getenv("VOICETURN_METRICS_ADDR"); addr != "" {
		go serveMetrics(addr, metrics)
	}

	cfg.OnUtterance = func(text string) {
		fmt.Printf("\n>>> %s\n\n", text)
	}
	cfg.OnError = func(kind live.ErrorKind, message string) {
		fmt.Printf("[ERROR] %s: %s\n", kind, message)
	}

	session, err := live.NewSession(cfg)
	if err != nil {
		slog.Error("invalid session config", "error", err)
		os.Exit(1)
	}

	fmt.Println("╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║                 voiceturn live transcription               ║")
	fmt.Println("╠════════════════════════════════════════════════════════════╣")
	fmt.Println("║  Speak naturally - automatic turn detection is enabled.    ║")
	fmt.Println("║  Completed turns are printed as >>> lines.                 ║")
	fmt.Println("║                                                            ║")
	fmt.Println("║  Commands:                                                 ║")
	fmt.Println("║    m   Toggle mute                                         ║")
	fmt.Println("║    s   Send the accumulated utterance now                  ║")
	fmt.Println("║    r   Discard the accumulated utterance                   ║")
	fmt.Println("║    i   Print a session snapshot                            ║")
	fmt.Println("║    q   Quit                                                ║")
	fmt.Println("╚════════════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	if err := session.Start(ctx); err != nil {
		slog.Error("failed to start session", "error", err)
		os.Exit(1)
	}
	defer session.Stop()

	go consumeEvents(session)

	// Command input loop
	fmt.Println("Listening... (type commands or 'q' to quit)")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if input == "" {
			continue
		}

		switch input {
		case "q":
			return
		case "m":
			session.ToggleMute()
		case "s":
			session.SendNow()
		case "r":
			session.Reset()
			fmt.Println("[RESET] accumulated utterance discarded")
		case "i":
			printSnapshot(session.Snapshot())
		default:
			fmt.Println("[INFO] Commands: m (mute), s (send), r (reset), i (info), q (quit)")
		}

		select {
		case <-session.Done():
			return
		default:
		}
	}
}

// consumeEvents renders session events until the session closes. The
// utterance text itself arrives through OnUtterance; events carry the
// surrounding lifecycle.
func consumeEvents(session *live.Session) {
	for event := range session.Events() {
		switch e := event.(type) {
		case *live.SessionBeganEvent:
			fmt.Printf("[SESSION] connected (%s)\n", e.SessionID)
		case *live.TranscriptUpdateEvent:
			if e.Final {
				fmt.Printf("[HEARD] %s\n", e.Text)
			} else {
				slog.Debug("interim transcript", "text", e.Text)
			}
		case *live.SentimentEvent:
			fmt.Printf("[SENTIMENT] %s (%.2f): %s\n", e.Sentiment, e.Confidence, e.Text)
		case *live.SpeakerLabelEvent:
			fmt.Printf("[SPEAKER %s] %s\n", e.Speaker, e.Text)
		case *live.ContentSafetyEvent:
			fmt.Printf("[SAFETY] flagged: %s\n", strings.Join(e.Labels, ", "))
		case *live.CountdownStartedEvent:
			fmt.Printf("[COUNTDOWN] %s, sending in %.1fs\n", e.Reason, e.Duration.Seconds())
		case *live.CountdownCancelledEvent:
			slog.Debug("countdown cancelled", "reason", e.Reason)
		case *live.UtteranceSentEvent:
			slog.Debug("utterance sent",
				"id", e.UtteranceID, "trigger", e.Trigger, "words", e.WordCount, "forced", e.Forced)
		case *live.MutedEvent:
			if e.Muted {
				fmt.Println("[MUTED] turn detection suspended")
			} else {
				fmt.Println("[LIVE] turn detection resumed")
			}
		case *live.QualityUpdatedEvent:
			for _, rec := range e.Metrics.Recommendations {
				fmt.Printf("[QUALITY] %s\n", rec)
			}
		case *live.AudioLevelEvent:
			slog.Debug("audio level", "rms", e.RMS, "peak", e.Peak)
		case *live.StateChangedEvent:
			slog.Debug("state changed", "from", e.From.String(), "to", e.To.String())
		case *live.ErrorEvent:
			slog.Debug("session error", "kind", e.Kind, "message", e.Message)
		case *live.DebugEvent:
			slog.Debug(e.Message, "category", e.Category)
		case *live.SessionClosedEvent:
			if e.Reason != "" {
				fmt.Printf("[CLOSED] %s (press q to exit)\n", e.Reason)
			} else {
				fmt.Println("[CLOSED] session ended")
			}
		}
	}
}

func printSnapshot(snap live.Snapshot) {
	fmt.Printf("  state:      %s\n", snap.State)
	fmt.Printf("  muted:      %v\n", snap.IsMuted)
	fmt.Printf("  transcript: %q\n", snap.Transcript)
	fmt.Printf("  interim:    %q\n", snap.InterimTranscript)
	if snap.AutoSendCountdown > 0 {
		fmt.Printf("  countdown:  %ds (%s)\n", snap.AutoSendCountdown, snap.AutoSendReason)
	} else {
		fmt.Printf("  countdown:  none\n")
	}
	fmt.Printf("  quality:    avg %.2f over %d samples (%s)\n",
		snap.Quality.AverageConfidence, snap.Quality.TotalSamples, snap.Quality.Trend)
}

// setupLogger builds the process logger from VOICETURN_LOG_LEVEL and
// VOICETURN_LOG_FORMAT. Interactive output goes to stdout via fmt; the
// logger covers operational detail on stderr.
func setupLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(env.Or("VOICETURN_LOG_LEVEL", "info")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(env.Or("VOICETURN_LOG_FORMAT", "text")) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func serveMetrics(addr string, metrics *live.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	slog.Info("metrics server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("metrics server failed", "error", err)
	}
}
