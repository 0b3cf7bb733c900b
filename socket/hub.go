package socket

import (
	"context"
	"encoding/json"
	"sync"

	"haven/pkg/logger"
)

const (
	ConnectedType   = "CONNECTED"    // Sent to a client right after it joins
	NoteCreatedType = "NOTE_CREATED" // Payload: store.Note
	NoteUpdatedType = "NOTE_UPDATED" // Payload: store.Note
	NoteDeletedType = "NOTE_DELETED" // Payload: {"id": ...}
	PoemCreatedType = "POEM_CREATED"
	PoemUpdatedType = "POEM_UPDATED"
	PoemDeletedType = "POEM_DELETED"
	ChatMessageType = "CHAT_MESSAGE" // Payload: store.ChatMessage
	ChatClearedType = "CHAT_CLEARED" // No payload
)

const sendBuffer = 256

// Event is what every connection of a user receives when that user's
// journal changes.
type Event struct {
	Type    string          `json:"type"`
	UserID  string          `json:"userId"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub fans events out to the connections of each user. Rooms are keyed by
// user id, so one user's tabs never see another user's events.
type Hub struct {
	Rooms      map[string]map[*Client]bool
	Broadcast  chan Event
	Register   chan *Client
	Unregister chan *Client
	mu         sync.Mutex
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		Rooms:      make(map[string]map[*Client]bool),
		Broadcast:  make(chan Event, sendBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return nil

		case client := <-h.Register:
			h.mu.Lock()
			if h.Rooms[client.UserID] == nil {
				h.Rooms[client.UserID] = make(map[*Client]bool)
			}
			h.Rooms[client.UserID][client] = true
			h.mu.Unlock()

			hello, _ := json.Marshal(Event{Type: ConnectedType, UserID: client.UserID})
			client.Send <- hello
			logger.Sugar.Debugf("Live feed: user %s connected", client.UserID)

		case client := <-h.Unregister:
			h.mu.Lock()
			h.removeLocked(client)
			h.mu.Unlock()

		case ev := <-h.Broadcast:
			payload, err := json.Marshal(ev)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling live event: %v", err)
				continue
			}

			h.mu.Lock()
			for client := range h.Rooms[ev.UserID] {
				select {
				case client.Send <- payload:
				default:
					// Lagging client; drop it rather than block the hub.
					logger.Sugar.Warnf("Client of user %s has a full send buffer. Disconnecting.", client.UserID)
					h.removeLocked(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) removeLocked(client *Client) {
	room, ok := h.Rooms[client.UserID]
	if !ok || !room[client] {
		return
	}
	delete(room, client)
	close(client.Send)
	if len(room) == 0 {
		delete(h.Rooms, client.UserID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range h.Rooms {
		for client := range room {
			h.removeLocked(client)
		}
	}
}

// Publish queues an event for userID. It never blocks the caller; when the
// hub is stopped or saturated the event is dropped.
func (h *Hub) Publish(userID, eventType string, payload any) {
	ev := Event{Type: eventType, UserID: userID}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			logger.Sugar.Errorf("Error marshalling %s payload: %v", eventType, err)
			return
		}
		ev.Payload = raw
	}

	select {
	case <-h.done:
	case h.Broadcast <- ev:
	default:
		logger.Sugar.Warnf("Live feed saturated, dropping %s for user %s", eventType, userID)
	}
}

// Connections reports how many live connections userID currently has.
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.Rooms[userID])
}

// Publisher is the part of the hub services depend on.
type Publisher interface {
	Publish(userID, eventType string, payload any)
}

type discard struct{}

func (discard) Publish(string, string, any) {}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}
