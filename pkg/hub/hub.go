package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
)

var (
	// ErrClosed is returned for sends after the hub has stopped.
	ErrClosed = errors.New("hub: closed")

	// ErrClientGone is returned when the target client is not registered.
	ErrClientGone = errors.New("hub: client not connected")

	// ErrClientSlow is returned when the target's queue was full. The
	// client is dropped.
	ErrClientSlow = errors.New("hub: client send buffer full")
)

// directMessage is a frame for one client. The loop reports the outcome on
// result.
type directMessage struct {
	client *Client
	data   []byte
	result chan error
}

// Hub maintains the set of active clients per topic and broadcasts
// messages to them.
type Hub struct {
	logger *slog.Logger

	// Registered clients by topic
	clients map[string]map[*Client]bool

	// Inbound messages to deliver
	broadcast chan Message

	// Frames for a single client
	direct chan directMessage

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Guards clients for read-only access from outside the loop
	mu sync.RWMutex

	done chan struct{}
}

// New creates a new Hub.
func New(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:     logger.With("component", "hub"),
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan Message, 256),
		direct:     make(chan directMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled, after
// closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for topic, set := range h.clients {
				for client := range set {
					close(client.send)
				}
				delete(h.clients, topic)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.clients[client.topic]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.topic] = set
			}
			set[client] = true
			count := len(set)
			h.mu.Unlock()
			h.logger.Debug("client connected", "topic", client.topic, "clients", count)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			count := len(h.clients[client.topic])
			h.mu.Unlock()
			h.logger.Debug("client disconnected", "topic", client.topic, "clients", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[message.Topic] {
				h.deliver(client, message.Data)
			}
			h.mu.Unlock()

		case req := <-h.direct:
			h.mu.Lock()
			if h.clients[req.client.topic][req.client] {
				req.result <- h.deliver(req.client, req.data)
			} else {
				req.result <- ErrClientGone
			}
			h.mu.Unlock()
		}
	}
}

// deliver queues data for client. Caller holds h.mu.
func (h *Hub) deliver(client *Client, data []byte) error {
	select {
	case client.send <- data:
		return nil
	default:
		// Client's buffer is full, drop it
		h.remove(client)
		h.logger.Warn("dropped slow client", "topic", client.topic)
		return ErrClientSlow
	}
}

// remove unregisters client. Caller holds h.mu.
func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.topic]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.topic)
	}
}

// Done is closed when Run returns.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Broadcast sends a message to all clients on its topic.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast channel full, dropping message", "topic", msg.Topic)
	}
}

// BroadcastJSON encodes v and broadcasts it on topic.
func (h *Hub) BroadcastJSON(topic string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewMessage(topic, data))
	return nil
}

// SendTo queues data for a single client. Unlike Broadcast it waits for the
// hub loop, so the caller learns whether the frame was queued.
func (h *Hub) SendTo(client *Client, data []byte) error {
	if client == nil {
		return ErrClientGone
	}
	req := directMessage{client: client, data: data, result: make(chan error, 1)}
	select {
	case h.direct <- req:
	case <-h.done:
		return ErrClosed
	}
	return <-req.result
}

// ClientCount returns the number of clients connected to topic.
func (h *Hub) ClientCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

// Topics returns the number of topics with at least one client.
func (h *Hub) Topics() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
