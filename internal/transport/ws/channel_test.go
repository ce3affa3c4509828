package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"starlane.io/internal/protocol"
)

type testServer struct {
	*httptest.Server

	mu    sync.Mutex
	conns []*websocket.Conn
	got   chan []byte
}

func newTestServer(t *testing.T, onConnect func(conn *websocket.Conn)) *testServer {
	t.Helper()
	ts := &testServer{got: make(chan []byte, 64)}
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.mu.Lock()
		ts.conns = append(ts.conns, conn)
		ts.mu.Unlock()
		if onConnect != nil {
			onConnect(conn)
		}
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ts.got <- msg
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) wsURL() string { return "ws" + strings.TrimPrefix(ts.URL, "http") }

func (ts *testServer) dropAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	for _, c := range ts.conns {
		_ = c.Close()
	}
	ts.conns = nil
}

func next(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("events closed")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatalf("timeout waiting for event")
	}
	return Event{}
}

func TestChannel_ConnectReceiveSend(t *testing.T) {
	welcome := `{"type":"welcome","data":{"id":"p1","position":{"x":1,"y":2,"z":3}}}`
	ts := newTestServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(welcome))
	})

	ch := NewChannel(Config{URL: ts.wsURL(), RetryDelay: 20 * time.Millisecond, Log: zerolog.Nop()})
	ch.Start()
	defer ch.Close()

	if ev := next(t, ch.Events()); ev.Kind != EventConnected {
		t.Fatalf("first event = %v", ev.Kind)
	}
	ev := next(t, ch.Events())
	if ev.Kind != EventMessage || string(ev.Data) != welcome {
		t.Fatalf("message event = %v %q", ev.Kind, ev.Data)
	}

	if err := ch.Send(protocol.NewJoin("vega")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	select {
	case b := <-ts.got:
		if string(b) != `{"type":"join","name":"vega"}` {
			t.Fatalf("server got %s", b)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("server never got join")
	}
}

func TestChannel_ReconnectsAfterDrop(t *testing.T) {
	ts := newTestServer(t, nil)
	ch := NewChannel(Config{URL: ts.wsURL(), RetryDelay: 20 * time.Millisecond, Log: zerolog.Nop()})
	ch.Start()
	defer ch.Close()

	if ev := next(t, ch.Events()); ev.Kind != EventConnected {
		t.Fatalf("first event = %v", ev.Kind)
	}
	time.Sleep(20 * time.Millisecond)
	ts.dropAll()

	ev := next(t, ch.Events())
	if ev.Kind != EventDisconnected || ev.Err == nil {
		t.Fatalf("want disconnected with error, got %v %v", ev.Kind, ev.Err)
	}
	if ev := next(t, ch.Events()); ev.Kind != EventConnected {
		t.Fatalf("want reconnect, got %v", ev.Kind)
	}
	if ch.Attempts() < 2 {
		t.Fatalf("attempts = %d", ch.Attempts())
	}
}

func TestChannel_RetriesFailedDial(t *testing.T) {
	ts := newTestServer(t, nil)
	url := ts.wsURL()
	ts.Close()

	ch := NewChannel(Config{URL: url, RetryDelay: 10 * time.Millisecond, Log: zerolog.Nop()})
	ch.Start()
	defer ch.Close()

	deadline := time.Now().Add(3 * time.Second)
	for ch.Attempts() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ch.Attempts() < 3 {
		t.Fatalf("attempts = %d, want retries to keep going", ch.Attempts())
	}
	select {
	case ev := <-ch.Events():
		t.Fatalf("no events expected for failed dials, got %v", ev.Kind)
	default:
	}
}

func TestChannel_SendWhileDisconnected(t *testing.T) {
	ch := NewChannel(Config{URL: "ws://127.0.0.1:1/none", Log: zerolog.Nop()})
	if err := ch.Send(protocol.NewScanArea()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Send err = %v, want ErrNotConnected", err)
	}
	ch.Close()
	if _, ok := <-ch.Events(); ok {
		t.Fatalf("events should be closed after Close")
	}
}

func TestChannel_StrictDropsInvalidFrames(t *testing.T) {
	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	ts := newTestServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ship_damage","data":{"hull":"lots"}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ship_damage","data":{"hull":42}}`))
	})

	ch := NewChannel(Config{URL: ts.wsURL(), RetryDelay: 20 * time.Millisecond, Validator: v, Log: zerolog.Nop()})
	ch.Start()
	defer ch.Close()

	next(t, ch.Events())
	ev := next(t, ch.Events())
	if ev.Kind != EventMessage || !strings.Contains(string(ev.Data), `42`) {
		t.Fatalf("want only the valid frame, got %v %s", ev.Kind, ev.Data)
	}
	if ch.Rejected() != 1 {
		t.Fatalf("rejected = %d", ch.Rejected())
	}
}
