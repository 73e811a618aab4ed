package core

// EventKind is a notification the core emits to room members.
type EventKind int

const (
	// EventStatus announces a member joining or leaving the room.
	EventStatus EventKind = iota
	// EventCode relays an edit of the shared code buffer.
	EventCode
	// EventOutput carries the result of running the shared code.
	EventOutput
)

// Event is delivered to every member of a room on broadcast.
type Event struct {
	Kind    EventKind
	Content string
	// Username is the sender's display name. Set for EventCode only.
	Username string
}
