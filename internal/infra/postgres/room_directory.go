package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// RoomDirectory checks room join codes against the rooms table.
type RoomDirectory struct {
	pool *pgxpool.Pool
}

func NewRoomDirectory(pool *pgxpool.Pool) *RoomDirectory {
	return &RoomDirectory{pool: pool}
}

func (d *RoomDirectory) RoomExists(ctx context.Context, roomKey string) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE join_code=$1)`, roomKey).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("room lookup: %w", err)
	}
	return exists, nil
}
