// Package stt provides the realtime transcription client: one persistent
// WebSocket per session streaming PCM frames up and typed events down.
// There is no reconnection: any closure is terminal and the owner must
// start a new session.
package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultServiceURL is the realtime transcription endpoint.
const DefaultServiceURL = "wss://api.assemblyai.com/v2/realtime/ws"

// LinkState is the socket lifecycle.
type LinkState int32

const (
	// LinkIdle means Open has not been called.
	LinkIdle LinkState = iota
	// LinkConnecting means the dial is in flight.
	LinkConnecting
	// LinkOpen means frames can be sent and events are flowing.
	LinkOpen
	// LinkClosed is terminal; the close code and reason are retained.
	LinkClosed
)

// String returns a human-readable state.
func (s LinkState) String() string {
	switch s {
	case LinkIdle:
		return "IDLE"
	case LinkConnecting:
		return "CONNECTING"
	case LinkOpen:
		return "OPEN"
	case LinkClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Config controls a transcription link.
type Config struct {
	// URL is the service endpoint; query parameters are appended.
	URL string `json:"url"`
	// SampleRate of the PCM frames, in Hz.
	SampleRate int `json:"sample_rate"`
	// Encoding of the PCM frames.
	Encoding string `json:"encoding"`
	// Sentiment enables sentiment analysis events.
	Sentiment bool `json:"sentiment"`
	// SpeakerLabels enables speaker attribution events.
	SpeakerLabels bool `json:"speaker_labels"`
	// ContentSafety enables content-safety events.
	ContentSafety bool `json:"content_safety"`
	// HandshakeTimeout bounds the dial.
	HandshakeTimeout time.Duration `json:"handshake_timeout"`
}

// DefaultConfig returns the standard link configuration.
func DefaultConfig() Config {
	return Config{
		URL:              DefaultServiceURL,
		SampleRate:       16000,
		Encoding:         "pcm_s16le",
		HandshakeTimeout: 10 * time.Second,
	}
}

// Client is a realtime transcription link. One per session.
type Client struct {
	cfg Config

	conn    *websocket.Conn
	events  chan Event
	done    chan struct{}
	closed  atomic.Bool
	writeMu sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc

	stateMu     sync.Mutex
	state       LinkState
	closeCode   int
	closeReason string
}

// NewClient creates an unopened link.
func NewClient(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultServiceURL
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Encoding == "" {
		cfg.Encoding = "pcm_s16le"
	}
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:    cfg,
		events: make(chan Event, 100),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		state:  LinkIdle,
	}
}

// Open dials the service with the given token and starts the read loop.
func (c *Client) Open(ctx context.Context, token string) error {
	if c.closed.Load() {
		return errors.New("stt: client closed")
	}

	c.stateMu.Lock()
	if c.state != LinkIdle {
		c.stateMu.Unlock()
		return fmt.Errorf("stt: open in state %s", c.state)
	}
	c.state = LinkConnecting
	c.stateMu.Unlock()

	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		c.setClosed(0, "bad url")
		return fmt.Errorf("parse service url: %w", err)
	}
	q := u.Query()
	q.Set("sample_rate", fmt.Sprintf("%d", c.cfg.SampleRate))
	q.Set("encoding", c.cfg.Encoding)
	q.Set("token", token)
	if c.cfg.Sentiment {
		q.Set("sentiment_analysis", "true")
	}
	if c.cfg.SpeakerLabels {
		q.Set("speaker_labels", "true")
	}
	if c.cfg.ContentSafety {
		q.Set("content_safety", "true")
	}
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{
		HandshakeTimeout: c.cfg.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, u.String(), http.Header{})
	if err != nil {
		c.setClosed(0, "connect failed")
		if resp != nil {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			if len(body) > 0 {
				return fmt.Errorf("connect transcription socket (status %d): %s", resp.StatusCode, string(body))
			}
			return fmt.Errorf("connect transcription socket: status %d: %w", resp.StatusCode, err)
		}
		return fmt.Errorf("connect transcription socket: %w", err)
	}

	c.stateMu.Lock()
	if c.closed.Load() {
		c.stateMu.Unlock()
		conn.Close()
		return errors.New("stt: client closed")
	}
	c.conn = conn
	c.state = LinkOpen
	c.stateMu.Unlock()

	go c.readLoop()

	return nil
}

func (c *Client) readLoop() {
	defer func() {
		close(c.events)
		close(c.done)
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			code, reason := closeStatus(err, c.closed.Load())
			c.setClosed(code, reason)

			ev := &ClosedEvent{Code: code, Reason: reason}
			if !IsNormalClosure(code) {
				ev.Err = &CloseError{Code: code, Reason: reason}
			}
			// Terminal event: deliver if the buffer has room, never
			// block shutdown on a stalled consumer.
			select {
			case c.events <- ev:
			default:
			}
			return
		}

		ev, err := DecodeEvent(data)
		if err != nil {
			// Garbled or unknown payloads never kill the session.
			continue
		}

		select {
		case c.events <- ev:
		case <-c.ctx.Done():
			return
		}
	}
}

// closeStatus extracts a close code and reason from a read error.
// selfClosed marks closures we initiated, which read as generic network
// errors on the torn-down connection.
func closeStatus(err error, selfClosed bool) (int, string) {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code, ce.Text
	}
	if selfClosed {
		return websocket.CloseNormalClosure, "normal"
	}
	return 0, err.Error()
}

// SendFrame sends one PCM frame. Frames are dropped silently unless the
// link is open: there is no buffering across connection states.
func (c *Client) SendFrame(frame []byte) {
	if c.closed.Load() || c.State() != LinkOpen {
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	// Write errors surface through the read loop as a closure.
	_ = c.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// Events returns the inbound event stream. It is closed after the terminal
// ClosedEvent is delivered.
func (c *Client) Events() <-chan Event {
	return c.events
}

// Done is closed when the read loop has finished.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// State returns the current link state.
func (c *Client) State() LinkState {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// CloseStatus returns the close code and reason once the link is closed.
func (c *Client) CloseStatus() (int, string) {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.closeCode, c.closeReason
}

func (c *Client) setClosed(code int, reason string) {
	c.stateMu.Lock()
	c.state = LinkClosed
	c.closeCode = code
	c.closeReason = reason
	c.stateMu.Unlock()
}

// Close shuts the link down. Idempotent; always leaves the state at
// Closed(1000, "normal") unless a terminal closure already happened.
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.cancel()

	c.stateMu.Lock()
	conn := c.conn
	c.stateMu.Unlock()

	if conn == nil {
		// Never opened: settle the state and release the streams.
		c.setClosed(websocket.CloseNormalClosure, "normal")
		close(c.events)
		close(c.done)
		return nil
	}

	c.writeMu.Lock()
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	return conn.Close()
}
