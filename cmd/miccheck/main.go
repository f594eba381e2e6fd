// Package main checks the local audio path end to end: it records a short
// sample from the default microphone, reports capture levels with a
// verdict, and plays the sample back through the default output device.
//
// Usage:
//
//	go run ./cmd/miccheck [-duration 3s] [-no-playback]
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/brightline-ai/voiceturn/pkg/capture"
	"github.com/brightline-ai/voiceturn/pkg/live"
)

func main() {
	duration := flag.Duration("duration", 3*time.Second, "how long to record")
	noPlayback := flag.Bool("no-playback", false, "skip speaker playback")
	flag.Parse()

	cfg := capture.DefaultConfig()
	mic := capture.NewMicSource(cfg)
	buffer := live.NewAudioBuffer(cfg, *duration+time.Second)

	fmt.Printf("Recording %s from the default microphone", *duration)
	if err := mic.Start(context.Background()); err != nil {
		fmt.Println()
		log.Fatalf("microphone unavailable: %v", err)
	}

	deadline := time.After(*duration)
	tick := time.NewTicker(500 * time.Millisecond)
record:
	for {
		select {
		case frame, ok := <-mic.Frames():
			if !ok {
				break record
			}
			buffer.Write(frame)
		case <-tick.C:
			fmt.Print(".")
		case <-deadline:
			break record
		}
	}
	tick.Stop()
	if err := mic.Stop(); err != nil {
		log.Printf("stopping microphone: %v", err)
	}
	fmt.Println(" done.")

	pcm := buffer.Bytes()
	rms := buffer.RMSEnergy()
	peak := buffer.PeakAmplitude()

	fmt.Println()
	fmt.Printf("  recorded: %.1fs (%d bytes at %d Hz)\n",
		buffer.Duration().Seconds(), len(pcm), cfg.SampleRate)
	fmt.Printf("  rms:      %.3f\n", rms)
	fmt.Printf("  peak:     %.3f\n", peak)
	fmt.Printf("  verdict:  %s\n", verdict(rms, peak))
	fmt.Println()

	if *noPlayback || len(pcm) == 0 {
		return
	}

	fmt.Print("Playing back")
	if err := playback(pcm, cfg.SampleRate); err != nil {
		fmt.Println()
		log.Fatalf("playback failed: %v", err)
	}
	fmt.Println(" done.")
}

// verdict turns raw levels into advice. Thresholds follow what healthy
// speech looks like at 16-bit normalization: conversational voice sits
// around 0.05-0.3 RMS.
func verdict(rms, peak float64) string {
	switch {
	case peak == 0:
		return "no signal - is the microphone muted or unplugged?"
	case rms < 0.005:
		return "very quiet - move closer or raise the input gain"
	case peak > 0.99:
		return "clipping - lower the input gain"
	case rms > 0.5:
		return "very hot - consider lowering the input gain"
	default:
		return "looks good"
	}
}

// playback plays 16-bit mono PCM through the default output device and
// blocks until the sample finishes.
func playback(pcm []byte, sampleRate int) error {
	otoOpts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}
	otoCtx, ready, err := oto.NewContext(otoOpts)
	if err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	<-ready

	player := otoCtx.NewPlayer(bytes.NewReader(pcm))
	player.Play()
	for player.IsPlaying() {
		time.Sleep(50 * time.Millisecond)
	}
	return player.Close()
}
