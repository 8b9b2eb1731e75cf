package memory

import "context"

// RoomDirectory is a fixed set of room keys, enough for tests and demo mode
// where no relational store is configured.
type RoomDirectory struct {
	rooms map[string]bool
}

func NewRoomDirectory(keys ...string) *RoomDirectory {
	rooms := make(map[string]bool, len(keys))
	for _, key := range keys {
		rooms[key] = true
	}
	return &RoomDirectory{rooms: rooms}
}

func (d *RoomDirectory) RoomExists(_ context.Context, roomKey string) (bool, error) {
	return d.rooms[roomKey], nil
}
