package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"starlane.io/internal/protocol"
)

// ErrNotConnected is returned by Send while no connection is up.
var ErrNotConnected = errors.New("ws: not connected")

const DefaultRetryDelay = 3 * time.Second

type EventKind int

const (
	EventConnected EventKind = iota + 1
	EventDisconnected
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is what the channel reports to its consumer. Data is set for
// EventMessage; Err for EventDisconnected.
type Event struct {
	Kind EventKind
	Data []byte
	Err  error
}

type Config struct {
	URL string

	RetryDelay       time.Duration
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// ReadTimeout of zero waits forever for the next frame.
	ReadTimeout time.Duration

	// Validator, when set, drops inbound frames that fail schema validation
	// before they reach the consumer.
	Validator *protocol.Validator

	Log zerolog.Logger
}

// Channel is a websocket client that keeps reconnecting after a fixed delay
// for as long as it is open. Inbound frames and connection changes arrive on
// Events; outbound messages go through Send.
type Channel struct {
	cfg Config
	log zerolog.Logger

	events chan Event

	startOnce sync.Once
	closeOnce sync.Once
	stop      chan struct{}
	done      chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn

	writeMu sync.Mutex

	attempts atomic.Uint64
	rejected atomic.Uint64
}

func NewChannel(cfg Config) *Channel {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 5 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &Channel{
		cfg:    cfg,
		log:    cfg.Log.With().Str("component", "ws").Str("url", cfg.URL).Logger(),
		events: make(chan Event, 256),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Events is closed once the channel has been closed and its goroutine exited.
func (c *Channel) Events() <-chan Event { return c.events }

func (c *Channel) Start() {
	c.startOnce.Do(func() {
		go c.run()
	})
}

func (c *Channel) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.dropConn()
		c.startOnce.Do(func() { close(c.done) })
		<-c.done
		close(c.events)
	})
}

// Attempts is the number of dials made so far.
func (c *Channel) Attempts() uint64 { return c.attempts.Load() }

// Rejected is the number of inbound frames dropped by the validator.
func (c *Channel) Rejected() uint64 { return c.rejected.Load() }

// Send writes one JSON message. Sends are fire-and-forget from the caller's
// point of view; a failed write also tears the connection down so the read
// loop notices and reconnects.
func (c *Channel) Send(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		_ = conn.Close()
		return err
	}
	return nil
}

func (c *Channel) dropConn() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (c *Channel) emit(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.stop:
		return false
	}
}

func (c *Channel) run() {
	defer close(c.done)

	for {
		select {
		case <-c.stop:
			return
		default:
		}

		connected, err := c.connectAndReadLoop()
		if connected {
			if !c.emit(Event{Kind: EventDisconnected, Err: err}) {
				return
			}
		}
		if err != nil {
			c.log.Warn().Err(err).Dur("retry_in", c.cfg.RetryDelay).Msg("connection lost")
		}

		select {
		case <-c.stop:
			return
		case <-time.After(c.cfg.RetryDelay):
		}
	}
}

// connectAndReadLoop dials once and pumps frames until the connection drops.
// connected reports whether the dial succeeded, i.e. whether a Connected
// event was emitted that now needs a matching Disconnected.
func (c *Channel) connectAndReadLoop() (connected bool, err error) {
	c.attempts.Add(1)
	d := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, resp, err := d.Dial(c.cfg.URL, http.Header{})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer c.dropConn()

	select {
	case <-c.stop:
		return false, nil
	default:
	}
	c.log.Info().Msg("connected")
	if !c.emit(Event{Kind: EventConnected}) {
		return false, nil
	}

	for {
		if c.cfg.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stop:
				return true, nil
			default:
			}
			return true, err
		}
		if c.cfg.Validator != nil {
			if err := c.cfg.Validator.Validate(msg); err != nil {
				c.rejected.Add(1)
				c.log.Warn().Err(err).Msg("dropping invalid frame")
				continue
			}
		}
		if !c.emit(Event{Kind: EventMessage, Data: msg}) {
			return true, nil
		}
	}
}
