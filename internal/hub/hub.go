package hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
)

var ErrHubStopped = errors.New("hub stopped")

// Hub routes frames to connections by room. A connection belongs to exactly
// its organization room and its personal member room.
type Hub struct {
	clients    map[string]*Client            // connID -> client
	rooms      map[string]map[string]*Client // room -> connID -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *RoomMessage
	done       chan struct{}
	mu         sync.RWMutex
}

// RoomMessage is an encoded frame addressed to a room or to one connection.
type RoomMessage struct {
	Room    string
	ConnID  string // set to address a single connection instead of a room
	Message []byte
	Exclude string // connection id to skip
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *RoomMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and deliveries until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			for _, room := range client.Identity.Rooms() {
				if _, ok := h.rooms[room]; !ok {
					h.rooms[room] = make(map[string]*Client)
				}
				h.rooms[room][client.ID] = client
			}
			h.mu.Unlock()
			l := log.L()
			l.Debug().Str(log.FieldConnID, client.ID).Msg("client registered")

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg *RoomMessage) {
	var slow []*Client

	h.mu.RLock()
	if msg.ConnID != "" {
		if client, ok := h.clients[msg.ConnID]; ok && !client.trySend(msg.Message) {
			slow = append(slow, client)
		}
	} else if members, ok := h.rooms[msg.Room]; ok {
		for connID, client := range members {
			if connID == msg.Exclude {
				continue
			}
			if !client.trySend(msg.Message) {
				slow = append(slow, client)
			}
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		l := log.L()
		l.Warn().Str(log.FieldConnID, client.ID).Msg("dropping slow client")
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; ok {
		for _, room := range client.Identity.Rooms() {
			if members, ok := h.rooms[room]; ok {
				delete(members, client.ID)
				if len(members) == 0 {
					delete(h.rooms, room)
				}
			}
		}
		delete(h.clients, client.ID)
		close(client.send)
	}
	h.mu.Unlock()
	l := log.L()
	l.Debug().Str(log.FieldConnID, client.ID).Msg("client unregistered")
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, client := range h.clients {
		close(client.send)
		delete(h.clients, id)
	}
	h.rooms = make(map[string]map[string]*Client)
	close(h.done)
}

// Register adds a client and joins its rooms.
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Emit encodes event and payload as a frame and delivers it to every
// connection in room except excludeConnID.
func (h *Hub) Emit(ctx context.Context, room, event string, payload interface{}, excludeConnID string) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	return h.enqueue(ctx, &RoomMessage{Room: room, Message: frame, Exclude: excludeConnID})
}

// EmitFrame delivers an already encoded frame to room.
func (h *Hub) EmitFrame(ctx context.Context, room string, frame []byte, excludeConnID string) error {
	return h.enqueue(ctx, &RoomMessage{Room: room, Message: frame, Exclude: excludeConnID})
}

// SendTo delivers a frame to a single connection.
func (h *Hub) SendTo(ctx context.Context, connID, event string, payload interface{}) error {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		return err
	}
	return h.enqueue(ctx, &RoomMessage{ConnID: connID, Message: frame})
}

func (h *Hub) enqueue(ctx context.Context, msg *RoomMessage) error {
	select {
	case h.broadcast <- msg:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RoomSize returns the number of local connections in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ClientCount returns the number of registered connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// EncodeFrame builds the {"event","data"} envelope.
func EncodeFrame(event string, payload interface{}) ([]byte, error) {
	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		data = raw
	}
	return json.Marshal(domain.Frame{Event: event, Data: data})
}
