package wstp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Package wstp implements the client side of the graphql-transport-ws
// protocol for subscription operations: connection_init/ack handshake,
// one subscribe per connection, and a read loop translating next/error/
// complete messages into callbacks.

const protocol = "graphql-transport-ws"

var (
	// ErrConnClosed indicates the connection was closed before or during
	// a subscription.
	ErrConnClosed = errors.New("wstp: connection closed")
)

type message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscribePayload is the wire payload of a subscribe message.
type SubscribePayload struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Events receives subscription lifecycle callbacks. OnNext may fire many
// times; OnError and OnComplete are terminal and mutually exclusive.
type Events struct {
	OnNext     func(payload []byte)
	OnError    func(err error)
	OnComplete func()
}

// Conn is one established subscription connection.
type Conn struct {
	ws     *websocket.Conn
	nextID atomic.Uint64

	writeMu sync.Mutex
	closed  atomic.Bool
}

// Dial connects to endpoint and performs the connection_init handshake.
func Dial(ctx context.Context, endpoint string, header http.Header) (*Conn, error) {
	dialer := websocket.Dialer{Subprotocols: []string{protocol}}
	ws, _, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, err
	}
	c := &Conn{ws: ws}
	if err := c.write(message{Type: "connection_init"}); err != nil {
		ws.Close()
		return nil, err
	}
	var ack message
	if err := ws.ReadJSON(&ack); err != nil {
		ws.Close()
		return nil, err
	}
	if ack.Type != "connection_ack" {
		ws.Close()
		return nil, fmt.Errorf("wstp: expected connection_ack, got %q", ack.Type)
	}
	return c, nil
}

// Subscribe starts the subscription and spawns the read loop. The
// returned id identifies the subscription in complete messages.
func (c *Conn) Subscribe(payload SubscribePayload, events Events) (string, error) {
	if c.closed.Load() {
		return "", ErrConnClosed
	}
	id := fmt.Sprintf("%d", c.nextID.Add(1))
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	if err := c.write(message{ID: id, Type: "subscribe", Payload: encoded}); err != nil {
		return "", err
	}
	go c.readLoop(id, events)
	return id, nil
}

func (c *Conn) readLoop(id string, events Events) {
	for {
		var msg message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if !c.closed.Load() && events.OnError != nil {
				events.OnError(err)
			}
			return
		}
		if msg.ID != id {
			continue
		}
		switch msg.Type {
		case "next":
			if events.OnNext != nil {
				events.OnNext(msg.Payload)
			}
		case "error":
			if events.OnError != nil {
				var list gqlerror.List
				if err := json.Unmarshal(msg.Payload, &list); err != nil || len(list) == 0 {
					events.OnError(fmt.Errorf("wstp: subscription error: %s", msg.Payload))
				} else {
					events.OnError(list)
				}
			}
			return
		case "complete":
			if events.OnComplete != nil {
				events.OnComplete()
			}
			return
		}
	}
}

// Close completes any active subscription and closes the connection.
// Idempotent.
func (c *Conn) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.writeMu.Lock()
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.ws.Close()
}

func (c *Conn) write(msg message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(msg)
}
