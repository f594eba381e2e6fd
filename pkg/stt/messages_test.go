package stt

import (
	"testing"
)

func TestDecodeEvent_Begin(t *testing.T) {
	data := []byte(`{"type":"session_begin","session_id":"abc123","expires_at":"2025-01-01T00:00:00Z"}`)
	ev, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	begin, ok := ev.(*BeginEvent)
	if !ok {
		t.Fatalf("expected *BeginEvent, got %T", ev)
	}
	if begin.SessionID != "abc123" {
		t.Errorf("SessionID = %q, want %q", begin.SessionID, "abc123")
	}
}

func TestDecodeEvent_Transcripts(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		wantText  string
		wantFinal bool
		wantConf  float64
	}{
		{
			"partial by type",
			`{"type":"partial_transcript","transcript":"hello wor","confidence":0.41}`,
			"hello wor", false, 0.41,
		},
		{
			"final by type",
			`{"type":"final_transcript","transcript":"hello world","confidence":0.93}`,
			"hello world", true, 0.93,
		},
		{
			"generic with is_final",
			`{"type":"transcript","transcript":"hey","is_final":true,"confidence":0.8}`,
			"hey", true, 0.8,
		},
		{
			"no type, transcript field present",
			`{"transcript":"legacy shape","is_final":true,"confidence":0.7}`,
			"legacy shape", true, 0.7,
		},
		{
			"no type, empty transcript still counts",
			`{"transcript":"","confidence":0.1}`,
			"", false, 0.1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tt.data))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tr, ok := ev.(*TranscriptEvent)
			if !ok {
				t.Fatalf("expected *TranscriptEvent, got %T", ev)
			}
			if tr.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", tr.Text, tt.wantText)
			}
			if tr.Final != tt.wantFinal {
				t.Errorf("Final = %v, want %v", tr.Final, tt.wantFinal)
			}
			if tr.Confidence != tt.wantConf {
				t.Errorf("Confidence = %v, want %v", tr.Confidence, tt.wantConf)
			}
		})
	}
}

func TestDecodeEvent_TranscriptMetadata(t *testing.T) {
	data := []byte(`{"type":"final_transcript","transcript":"hi","speaker":"A","audio_start":2500}`)
	ev, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tr := ev.(*TranscriptEvent)
	if tr.SpeakerID != "A" {
		t.Errorf("SpeakerID = %q, want A", tr.SpeakerID)
	}
	if tr.TimestampMs != 2500 {
		t.Errorf("TimestampMs = %d, want 2500", tr.TimestampMs)
	}
}

func TestDecodeEvent_Sentiment(t *testing.T) {
	data := []byte(`{"type":"sentiment","text":"great stuff","sentiment":"POSITIVE","confidence":0.88}`)
	ev, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := ev.(*SentimentEvent)
	if !ok {
		t.Fatalf("expected *SentimentEvent, got %T", ev)
	}
	if s.Sentiment != "POSITIVE" || s.Confidence != 0.88 {
		t.Errorf("got %+v", s)
	}
}

func TestDecodeEvent_SpeakerLabel(t *testing.T) {
	data := []byte(`{"type":"speaker_label","speaker":"B","text":"and then I left"}`)
	ev, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, ok := ev.(*SpeakerLabelEvent)
	if !ok {
		t.Fatalf("expected *SpeakerLabelEvent, got %T", ev)
	}
	if s.Speaker != "B" {
		t.Errorf("Speaker = %q, want B", s.Speaker)
	}
}

func TestDecodeEvent_ContentSafety(t *testing.T) {
	data := []byte(`{"type":"content_safety","labels":[{"label":"profanity","confidence":0.95,"severity":0.2}]}`)
	ev, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cs, ok := ev.(*ContentSafetyEvent)
	if !ok {
		t.Fatalf("expected *ContentSafetyEvent, got %T", ev)
	}
	if len(cs.Labels) != 1 || cs.Labels[0].Label != "profanity" {
		t.Errorf("got %+v", cs.Labels)
	}
}

func TestDecodeEvent_Error(t *testing.T) {
	data := []byte(`{"type":"error","error":"rate limited"}`)
	ev, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e, ok := ev.(*ErrorEvent)
	if !ok {
		t.Fatalf("expected *ErrorEvent, got %T", ev)
	}
	if e.Message != "rate limited" {
		t.Errorf("Message = %q", e.Message)
	}
}

func TestDecodeEvent_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", `{{{`},
		{"unknown type", `{"type":"telemetry"}`},
		{"no type no transcript", `{"confidence":0.5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeEvent([]byte(tt.data)); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}
