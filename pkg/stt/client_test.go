package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newWSServer starts a test transcription service; handler runs once per
// connection on the server side.
func newWSServer(t *testing.T, handler func(conn *websocket.Conn)) (*httptest.Server, string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		handler(conn)
	}))
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	return srv, wsURL
}

func collectEvents(c *Client) []Event {
	var events []Event
	for ev := range c.Events() {
		events = append(events, ev)
	}
	return events
}

func TestClient_OpenAndReceive(t *testing.T) {
	srv, wsURL := newWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"session_begin","session_id":"s1"}`))
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"final_transcript","transcript":"hello there","confidence":0.9}`))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = wsURL
	c := NewClient(cfg)

	if got := c.State(); got != LinkIdle {
		t.Errorf("initial state = %v, want IDLE", got)
	}
	if err := c.Open(context.Background(), "test-token"); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	events := collectEvents(c)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %v", len(events), events)
	}
	if _, ok := events[0].(*BeginEvent); !ok {
		t.Errorf("event 0: expected *BeginEvent, got %T", events[0])
	}
	tr, ok := events[1].(*TranscriptEvent)
	if !ok {
		t.Fatalf("event 1: expected *TranscriptEvent, got %T", events[1])
	}
	if tr.Text != "hello there" || !tr.Final {
		t.Errorf("transcript = %+v", tr)
	}
	closed, ok := events[2].(*ClosedEvent)
	if !ok {
		t.Fatalf("event 2: expected *ClosedEvent, got %T", events[2])
	}
	if closed.Err != nil {
		t.Errorf("normal closure should carry no error, got %v", closed.Err)
	}
	if got := c.State(); got != LinkClosed {
		t.Errorf("state after close = %v, want CLOSED", got)
	}

	c.Close()
}

func TestClient_InvalidCredentialClosure(t *testing.T) {
	srv, wsURL := newWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseInvalidCredential, "Not authorized"))
		conn.Close()
	})
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = wsURL
	c := NewClient(cfg)
	if err := c.Open(context.Background(), "bad-key"); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	events := collectEvents(c)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	closed, ok := events[0].(*ClosedEvent)
	if !ok {
		t.Fatalf("expected *ClosedEvent, got %T", events[0])
	}
	if closed.Code != CloseInvalidCredential {
		t.Errorf("Code = %d, want 4001", closed.Code)
	}
	if closed.Err == nil {
		t.Fatal("expected terminal error")
	}
	want := "Invalid AssemblyAI API key. Please check your configuration."
	if got := closed.Err.Error(); got != want {
		t.Errorf("error = %q, want %q", got, want)
	}

	code, _ := c.CloseStatus()
	if code != CloseInvalidCredential {
		t.Errorf("CloseStatus code = %d, want 4001", code)
	}
}

func TestClient_SendFrame(t *testing.T) {
	got := make(chan []byte, 1)
	srv, wsURL := newWSServer(t, func(conn *websocket.Conn) {
		mt, data, err := conn.ReadMessage()
		if err == nil && mt == websocket.BinaryMessage {
			got <- data
		}
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = wsURL
	c := NewClient(cfg)

	// Not open yet: dropped silently.
	c.SendFrame([]byte{1, 2, 3})

	if err := c.Open(context.Background(), "tok"); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	c.SendFrame([]byte{9, 8, 7})

	select {
	case frame := <-got:
		if len(frame) != 3 || frame[0] != 9 {
			t.Errorf("server received %v", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never received the frame")
	}

	collectEvents(c)
	c.Close()

	// After close: no-op, no panic.
	c.SendFrame([]byte{0})
}

func TestClient_SkipsMalformedMessages(t *testing.T) {
	srv, wsURL := newWSServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{{{not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"mystery"}`))
		conn.WriteMessage(websocket.TextMessage,
			[]byte(`{"type":"final_transcript","transcript":"still alive","confidence":0.8}`))
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = wsURL
	c := NewClient(cfg)
	if err := c.Open(context.Background(), "tok"); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	events := collectEvents(c)
	if len(events) != 2 {
		t.Fatalf("expected 2 events (transcript + closed), got %d", len(events))
	}
	tr, ok := events[0].(*TranscriptEvent)
	if !ok || tr.Text != "still alive" {
		t.Errorf("expected surviving transcript, got %T %v", events[0], events[0])
	}
}

func TestClient_CloseWithoutOpen(t *testing.T) {
	c := NewClient(DefaultConfig())
	if err := c.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}

	if got := c.State(); got != LinkClosed {
		t.Errorf("state = %v, want CLOSED", got)
	}
	code, reason := c.CloseStatus()
	if code != websocket.CloseNormalClosure || reason != "normal" {
		t.Errorf("CloseStatus = (%d, %q), want (1000, normal)", code, reason)
	}

	// Streams are released.
	if _, ok := <-c.Events(); ok {
		t.Error("expected events channel to be closed")
	}
	select {
	case <-c.Done():
	default:
		t.Error("expected done to be closed")
	}
}

func TestClient_ClientInitiatedClose(t *testing.T) {
	srv, wsURL := newWSServer(t, func(conn *websocket.Conn) {
		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = wsURL
	c := NewClient(cfg)
	if err := c.Open(context.Background(), "tok"); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if err := c.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	events := collectEvents(c)
	if len(events) != 1 {
		t.Fatalf("expected only the closed event, got %d", len(events))
	}
	closed := events[0].(*ClosedEvent)
	if closed.Err != nil {
		t.Errorf("self-close should be normal, got error %v", closed.Err)
	}
	if closed.Code != websocket.CloseNormalClosure {
		t.Errorf("Code = %d, want 1000", closed.Code)
	}
}

func TestClient_OpenTwice(t *testing.T) {
	srv, wsURL := newWSServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.URL = wsURL
	c := NewClient(cfg)
	if err := c.Open(context.Background(), "tok"); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if got := c.State(); got != LinkOpen {
		t.Errorf("state after open = %v, want OPEN", got)
	}
	if err := c.Open(context.Background(), "tok"); err == nil {
		t.Error("expected second open to fail")
	}
	c.Close()
}

func TestClient_DialFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.URL = "ws://127.0.0.1:1/nope"
	cfg.HandshakeTimeout = 500 * time.Millisecond
	c := NewClient(cfg)

	if err := c.Open(context.Background(), "tok"); err == nil {
		t.Fatal("expected dial failure")
	}
	if got := c.State(); got != LinkClosed {
		t.Errorf("state after failed dial = %v, want CLOSED", got)
	}
}
