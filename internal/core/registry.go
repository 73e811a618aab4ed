package core

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Registry owns every room and all membership state. It is the single
// piece of state shared between connection goroutines, guarded by one
// lock so that join, leave and membership snapshots are atomic units.
//
// Rooms live for the process lifetime; nothing ever deletes one.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
	log   *zerolog.Logger
}

// NewRegistry constructs an empty registry.
func NewRegistry(logger *zerolog.Logger) *Registry {
	return &Registry{
		rooms: make(map[string]*room),
		log:   logger,
	}
}

// CreateRoom registers a new empty room and returns its identifier, a
// freshly generated 128-bit random token. Never fails.
func (reg *Registry) CreateRoom() string {
	id := uuid.NewString()

	reg.mu.Lock()
	reg.rooms[id] = newRoom(id)
	reg.mu.Unlock()

	reg.log.Debug().Str("room_id", id).Msg("room created")
	return id
}

// RoomExists reports whether a room with the given identifier exists.
func (reg *Registry) RoomExists(id string) bool {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	_, ok := reg.rooms[id]
	return ok
}

// Join adds a session to a room's membership set. Returns
// ErrRoomNotFound for an unknown room and ErrAlreadyJoined if the
// session already belongs to one.
func (reg *Registry) Join(id string, s *Session) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if s.room != "" {
		return ErrAlreadyJoined
	}
	rm, ok := reg.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}

	rm.add(s)
	s.room = id
	return nil
}

// Leave removes a session from its room's membership set. It is
// idempotent: leaving twice, or leaving without having joined, is a
// no-op. Returns true if the session was actually removed.
func (reg *Registry) Leave(s *Session) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rm, ok := reg.rooms[s.room]
	if !ok {
		return false
	}
	return rm.remove(s)
}

// Members returns a point-in-time snapshot of a room's membership.
// Returns nil for an unknown room.
func (reg *Registry) Members(id string) []*Session {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	rm, ok := reg.rooms[id]
	if !ok {
		return nil
	}
	return rm.snapshot()
}

// MemberCount reports the current size of a room's membership set.
func (reg *Registry) MemberCount(id string) int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	rm, ok := reg.rooms[id]
	if !ok {
		return 0
	}
	return len(rm.sessions)
}

// Broadcast delivers an event to every session that was a member of the
// room at dispatch time, including the sender. Delivery is per-recipient
// best effort: a session with a full buffer misses the frame, the rest
// still receive it. Returns the number of sessions reached and the
// number skipped.
func (reg *Registry) Broadcast(id string, ev *Event) (delivered, dropped int) {
	members := reg.Members(id)

	for _, s := range members {
		if s.TrySend(ev) {
			delivered++
			continue
		}
		dropped++
		reg.log.Debug().
			Str("room_id", id).
			Str("session_id", s.ID).
			Msg("dropped event for slow session")
	}
	return delivered, dropped
}
