package events

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	sendBuffer   = 16
	publishQueue = 64
)

var ErrHubStopped = errors.New("hub stopped")

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub fans events out to websocket clients. Its client set is only touched
// by the Run goroutine; each client is written by its own goroutine, so a
// slow socket never holds up the others.
type Hub struct {
	clients    map[*client]bool
	connect    chan *client
	disconnect chan *client
	broadcast  chan Event
	done       chan struct{}
	upgrader   websocket.Upgrader
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		connect:    make(chan *client),
		disconnect: make(chan *client),
		broadcast:  make(chan Event, publishQueue),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Run owns the client set until ctx is done. It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.connect:
			h.clients[c] = true
		case c := <-h.disconnect:
			h.drop(c)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) drop(c *client) {
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// deliver queues e for every client. A client whose queue is full is
// dropped.
func (h *Hub) deliver(e Event) {
	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			h.drop(c)
		}
	}
}

// Publish queues e for broadcast. It fails at once when the hub has stopped
// or ctx is already done.
func (h *Hub) Publish(ctx context.Context, e Event) error {
	select {
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	select {
	case h.broadcast <- e:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for event := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(event); err != nil {
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// ServeWS upgrades the request and keeps the client registered until it
// goes away. Clients only listen; anything they send is discarded.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, send: make(chan Event, sendBuffer)}
	ctx := r.Context()

	select {
	case h.connect <- c:
	case <-h.done:
		conn.Close()
		return ErrHubStopped
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	}

	go c.writePump()

	defer func() {
		select {
		case h.disconnect <- c:
		case <-h.done:
		}
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return nil
		}
	}
}
