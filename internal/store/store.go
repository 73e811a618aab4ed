package store

import (
	"context"
	"time"
)

// Run is one persisted execution of a room's shared buffer.
type Run struct {
	ID        int64
	RoomID    string
	Backend   string
	Status    string // success, compile_error, runtime_error
	Output    string
	Duration  time.Duration
	CreatedAt time.Time
}

// Store persists the execution audit log. Room membership itself is
// never persisted; rooms are process-lifetime state owned by the core
// registry.
type Store interface {
	SaveRun(ctx context.Context, run *Run) (*Run, error)
	ListRuns(ctx context.Context, roomID string, limit int) ([]Run, error)
	Close() error
}
