package app

import (
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/cormac-larkin/EduChan-sub000/internal/domain"
)

// ConnectionID identifies one live transport endpoint (one browser tab).
type ConnectionID string

// Event is an outbound message delivered to a connection's event channel.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// eventBuffer bounds each connection's outbound queue; slow consumers lose
// the oldest event rather than blocking the hub.
const eventBuffer = 16

type connection struct {
	id     ConnectionID
	member domain.Member
	room   string // empty until the first join-room
	events chan Event
}

// Registry tracks live connections and the single room each is joined to.
// It is constructed per process (or per test) and passed explicitly to the
// Hub; there is no package-level instance.
type Registry struct {
	mu    sync.RWMutex
	seq   atomic.Int64
	conns map[ConnectionID]*connection
	rooms map[string]map[ConnectionID]*connection
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[ConnectionID]*connection),
		rooms: make(map[string]map[ConnectionID]*connection),
	}
}

// Register creates a connection for a member and returns its ID plus the
// channel its outbound events arrive on. The channel is closed on Unregister.
func (r *Registry) Register(member domain.Member) (ConnectionID, <-chan Event) {
	id := ConnectionID("conn-" + strconv.FormatInt(r.seq.Add(1), 10))
	c := &connection{
		id:     id,
		member: member,
		events: make(chan Event, eventBuffer),
	}

	r.mu.Lock()
	r.conns[id] = c
	r.mu.Unlock()
	return id, c.events
}

// Unregister removes a connection, closes its event channel and returns the
// room it vacated, if any. Repeated calls for the same ID are no-ops.
func (r *Registry) Unregister(id ConnectionID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return "", false
	}
	delete(r.conns, id)
	vacated := c.room
	r.removeFromRoomLocked(c)
	close(c.events)
	return vacated, true
}

// SetRoom moves a connection into a room, evicting it from its previous room
// first (a connection is in at most one room). It returns the previous room.
func (r *Registry) SetRoom(id ConnectionID, room string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conns[id]
	if !ok {
		return "", false
	}
	prev := c.room
	if prev == room {
		return prev, true
	}
	r.removeFromRoomLocked(c)
	c.room = room
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[ConnectionID]*connection)
		r.rooms[room] = members
	}
	members[id] = c
	return prev, true
}

// RoomOf returns the room a connection is currently joined to.
func (r *Registry) RoomOf(id ConnectionID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok || c.room == "" {
		return "", false
	}
	return c.room, true
}

// MemberOf returns the member identity behind a connection.
func (r *Registry) MemberOf(id ConnectionID) (domain.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok {
		return domain.Member{}, false
	}
	return c.member, true
}

// Roster returns the IDs of all registered connections, sorted.
func (r *Registry) Roster() []ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ConnectionID, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// RoomMembers returns the IDs of the connections currently in a room, sorted.
func (r *Registry) RoomMembers(room string) []ConnectionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]ConnectionID, 0, len(r.rooms[room]))
	for id := range r.rooms[room] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// send queues an event for one connection without blocking; when the buffer
// is full the oldest queued event is dropped first. Unknown IDs are ignored.
// The read lock is held across the sends so Unregister cannot close the
// channel mid-send.
func (r *Registry) send(id ConnectionID, ev Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok {
		return
	}
	select {
	case c.events <- ev:
	default:
		select {
		case <-c.events:
		default:
		}
		select {
		case c.events <- ev:
		default:
		}
	}
}

func (r *Registry) removeFromRoomLocked(c *connection) {
	if c.room == "" {
		return
	}
	if members, ok := r.rooms[c.room]; ok {
		delete(members, c.id)
		if len(members) == 0 {
			delete(r.rooms, c.room)
		}
	}
	c.room = ""
}
