package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence marks rooms with an open live session
// (SET educhan:live:{roomKey}) so sibling surfaces can show a "quiz in
// progress" badge without asking this process. Writes are best-effort; the
// TTL matches the session's maximum duration so a crashed process cannot
// leave a room marked live forever.
type Presence struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresence(client *redis.Client, ttl time.Duration) *Presence {
	return &Presence{client: client, ttl: ttl}
}

func (p *Presence) MarkLive(ctx context.Context, roomKey string) {
	_ = p.client.Set(ctx, p.key(roomKey), "1", p.ttl).Err()
}

func (p *Presence) ClearLive(ctx context.Context, roomKey string) {
	_ = p.client.Del(ctx, p.key(roomKey)).Err()
}

func (p *Presence) key(roomKey string) string {
	return "educhan:live:" + roomKey
}
