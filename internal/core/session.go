package core

// DefaultName is used when a client announces no display name.
const DefaultName = "Anonymous"

// sessionBuffer is the per-session outbound event buffer. A session whose
// buffer is full misses frames instead of blocking the broadcaster.
const sessionBuffer = 16

// Session is one client's live connection as seen by the core layer.
// The connection itself stays with the transport; the core only ever
// touches the event channel.
type Session struct {
	ID   string
	Name string

	// room is set once by Registry.Join and never changes afterwards.
	room string

	Events chan *Event
}

// NewSession constructs a session with an initialized event buffer.
func NewSession(id, name string) *Session {
	if name == "" {
		name = DefaultName
	}
	return &Session{
		ID:     id,
		Name:   name,
		Events: make(chan *Event, sessionBuffer),
	}
}

// Room returns the identifier of the room this session joined, or "" if
// the session never joined one.
func (s *Session) Room() string {
	return s.room
}

// TrySend queues an event for delivery without blocking. Returns false
// if the session's buffer is full and the event was dropped.
func (s *Session) TrySend(ev *Event) bool {
	select {
	case s.Events <- ev:
		return true
	default:
		return false
	}
}
