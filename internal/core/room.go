package core

// room holds the membership set for one broadcast domain. All access is
// serialized by the registry lock; the type itself is not safe for
// concurrent use.
type room struct {
	id       string
	sessions map[*Session]struct{}
}

func newRoom(id string) *room {
	return &room{
		id:       id,
		sessions: make(map[*Session]struct{}),
	}
}

// add inserts a session into the room. Returns true if newly added.
func (r *room) add(s *Session) bool {
	if _, exists := r.sessions[s]; exists {
		return false
	}
	r.sessions[s] = struct{}{}
	return true
}

// remove deletes a session from the room. Returns true if removed.
func (r *room) remove(s *Session) bool {
	if _, exists := r.sessions[s]; !exists {
		return false
	}
	delete(r.sessions, s)
	return true
}

// snapshot copies the current membership so broadcast can iterate
// outside the registry lock.
func (r *room) snapshot() []*Session {
	members := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		members = append(members, s)
	}
	return members
}
