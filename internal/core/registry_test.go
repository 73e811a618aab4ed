package core

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

func newTestRegistry() *Registry {
	logger := zerolog.Nop()
	return NewRegistry(&logger)
}

func TestCreateRoomExists(t *testing.T) {
	reg := newTestRegistry()

	id := reg.CreateRoom()
	if id == "" {
		t.Fatal("expected non-empty room id")
	}
	if !reg.RoomExists(id) {
		t.Fatalf("room %s should exist immediately after creation", id)
	}
	if reg.RoomExists("no-such-room") {
		t.Fatal("unknown room reported as existing")
	}

	other := reg.CreateRoom()
	if other == id {
		t.Fatalf("room ids must be unique, got %s twice", id)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	reg := newTestRegistry()
	roomID := reg.CreateRoom()

	s := NewSession("s1", "alice")
	if err := reg.Join("ghost", s); err != ErrRoomNotFound {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	if s.Room() != "" {
		t.Fatalf("failed join must not bind the session, got room %q", s.Room())
	}
	if n := reg.MemberCount(roomID); n != 0 {
		t.Fatalf("failed join mutated another room: %d members", n)
	}
}

func TestJoinTwiceFails(t *testing.T) {
	reg := newTestRegistry()
	roomID := reg.CreateRoom()

	s := NewSession("s1", "alice")
	if err := reg.Join(roomID, s); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := reg.Join(roomID, s); err != ErrAlreadyJoined {
		t.Fatalf("expected ErrAlreadyJoined, got %v", err)
	}
	if n := reg.MemberCount(roomID); n != 1 {
		t.Fatalf("expected 1 member after double join, got %d", n)
	}
}

func TestBroadcastReachesAllMembers(t *testing.T) {
	reg := newTestRegistry()
	roomID := reg.CreateRoom()

	sessions := make([]*Session, 0, 3)
	for i := 0; i < 3; i++ {
		s := NewSession(fmt.Sprintf("s%d", i), fmt.Sprintf("user%d", i))
		if err := reg.Join(roomID, s); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
		sessions = append(sessions, s)
	}

	delivered, dropped := reg.Broadcast(roomID, &Event{Kind: EventCode, Content: "x := 1", Username: "user0"})
	if delivered != 3 || dropped != 0 {
		t.Fatalf("expected 3 deliveries and no drops, got %d/%d", delivered, dropped)
	}

	// Every member receives the frame exactly once, sender included.
	for i, s := range sessions {
		ev := mustEvent(t, s.Events, EventCode)
		if ev.Content != "x := 1" || ev.Username != "user0" {
			t.Fatalf("session %d got unexpected event %+v", i, ev)
		}
		mustNoEvent(t, s.Events)
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	reg := newTestRegistry()
	roomID := reg.CreateRoom()

	s := NewSession("s1", "alice")
	if err := reg.Join(roomID, s); err != nil {
		t.Fatalf("join: %v", err)
	}

	if !reg.Leave(s) {
		t.Fatal("first leave should remove the session")
	}
	if reg.Leave(s) {
		t.Fatal("second leave should be a no-op")
	}
	if n := reg.MemberCount(roomID); n != 0 {
		t.Fatalf("expected empty room, got %d members", n)
	}

	// Leaving without ever joining is also a no-op.
	if reg.Leave(NewSession("s2", "bob")) {
		t.Fatal("leave of an unjoined session should report false")
	}
}

func TestLeftSessionGetsNoFurtherEvents(t *testing.T) {
	reg := newTestRegistry()
	roomID := reg.CreateRoom()

	alice := NewSession("a", "alice")
	bob := NewSession("b", "bob")
	for _, s := range []*Session{alice, bob} {
		if err := reg.Join(roomID, s); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	reg.Leave(alice)

	delivered, _ := reg.Broadcast(roomID, &Event{Kind: EventStatus, Content: "alice left"})
	if delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}
	mustEvent(t, bob.Events, EventStatus)
	mustNoEvent(t, alice.Events)
}

func TestSlowSessionDoesNotBlockBroadcast(t *testing.T) {
	reg := newTestRegistry()
	roomID := reg.CreateRoom()

	slow := NewSession("slow", "slow")
	fast := NewSession("fast", "fast")
	for _, s := range []*Session{slow, fast} {
		if err := reg.Join(roomID, s); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	// Saturate the slow session's buffer.
	for slow.TrySend(&Event{Kind: EventCode}) {
	}

	delivered, dropped := reg.Broadcast(roomID, &Event{Kind: EventOutput, Content: "hi\n"})
	if delivered != 1 || dropped != 1 {
		t.Fatalf("expected the full-buffer recipient to be skipped, delivered=%d dropped=%d", delivered, dropped)
	}
	mustEvent(t, fast.Events, EventOutput)
}

func TestConcurrentJoinLeave(t *testing.T) {
	reg := newTestRegistry()
	roomID := reg.CreateRoom()

	const total = 64

	var wg sync.WaitGroup
	for i := 0; i < total; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			s := NewSession(fmt.Sprintf("s%d", n), "user")
			if err := reg.Join(roomID, s); err != nil {
				t.Errorf("join %d: %v", n, err)
				return
			}
			// Odd-numbered sessions leave again.
			if n%2 == 1 {
				reg.Leave(s)
			}
		}(i)
	}
	wg.Wait()

	if n := reg.MemberCount(roomID); n != total/2 {
		t.Fatalf("expected %d remaining members, got %d", total/2, n)
	}
}

func TestBroadcastDuringChurn(t *testing.T) {
	reg := newTestRegistry()
	roomID := reg.CreateRoom()

	stable := NewSession("stable", "stable")
	if err := reg.Join(roomID, stable); err != nil {
		t.Fatalf("join: %v", err)
	}
	go func() {
		for range stable.Events {
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s := NewSession(fmt.Sprintf("churn%d", n), "churn")
				if err := reg.Join(roomID, s); err != nil {
					t.Errorf("join: %v", err)
					return
				}
				reg.Leave(s)
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for j := 0; j < 200; j++ {
			reg.Broadcast(roomID, &Event{Kind: EventCode, Content: "tick"})
		}
	}()

	wg.Wait()
	<-done

	if n := reg.MemberCount(roomID); n != 1 {
		t.Fatalf("expected only the stable member to remain, got %d", n)
	}
}
