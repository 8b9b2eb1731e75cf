package app

import (
	"sync"

	"github.com/cormac-larkin/EduChan-sub000/internal/domain"
)

// Event types on the real-time channel. Inbound types are handled by
// LiveService.Dispatch; the rest are server-emitted.
const (
	EventJoinRoom       = "join-room"
	EventSendMessage    = "send-message"
	EventDeleteMessage  = "delete-message"
	EventPromptResponse = "prompt-response"
	EventStartQuiz      = "start-quiz"
	EventEndQuiz        = "end-quiz"
	EventNewAnswer      = "new-answer"

	EventConnected    = "connected"
	EventParticipants = "update-participants"
	EventQuizStarted  = "quiz-started"
	EventTally        = "tally"
)

// Hub relays events to the connections of a room and keeps every connection's
// view of the global roster current. All hub operations run behind one mutex,
// so events within a room reach subscribers in the order the hub processed
// them. Delivery is fire-and-forget: connections that are gone or saturated
// miss the event and reconcile over REST.
type Hub struct {
	mu       sync.Mutex
	registry *Registry
}

func NewHub(registry *Registry) *Hub {
	return &Hub{registry: registry}
}

// Connect registers a member's connection, greets it with its ConnectionID
// and pushes the updated roster to everyone.
func (h *Hub) Connect(member domain.Member) (ConnectionID, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id, events := h.registry.Register(member)
	h.registry.send(id, Event{Type: EventConnected, Payload: map[string]any{"connectionId": id}})
	h.pushRosterLocked()
	return id, events
}

// Disconnect drops a connection and returns the room it vacated ("" if none).
func (h *Hub) Disconnect(id ConnectionID) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	vacated, ok := h.registry.Unregister(id)
	if !ok {
		return ""
	}
	h.pushRosterLocked()
	return vacated
}

// JoinRoom moves a connection into a room, evicting it from its previous one.
// It returns the previous room ("" if none).
func (h *Hub) JoinRoom(id ConnectionID, room string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev, ok := h.registry.SetRoom(id, room)
	if !ok {
		return ""
	}
	if prev != room {
		h.pushRosterLocked()
	}
	return prev
}

// Broadcast delivers an event to every connection currently in the room,
// optionally excluding the originating connection.
func (h *Hub) Broadcast(room, eventType string, payload any, exclude ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ev := Event{Type: eventType, Payload: payload}
	for _, id := range h.registry.RoomMembers(room) {
		if id == exclude {
			continue
		}
		h.registry.send(id, ev)
	}
}

// Roster returns the IDs of all connected participants.
func (h *Hub) Roster() []ConnectionID {
	return h.registry.Roster()
}

// pushRosterLocked recomputes the global roster and sends it to every
// connection, the product's "who's online" indicator.
func (h *Hub) pushRosterLocked() {
	roster := h.registry.Roster()
	ev := Event{Type: EventParticipants, Payload: roster}
	for _, id := range roster {
		h.registry.send(id, ev)
	}
}
