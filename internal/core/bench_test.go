package core

import (
	"fmt"
	"testing"
)

func benchmarkBroadcast(b *testing.B, recipients int) {
	reg := newTestRegistry()
	roomID := reg.CreateRoom()

	sessions := make([]*Session, 0, recipients)
	for i := 0; i < recipients; i++ {
		s := NewSession(fmt.Sprintf("s%d", i), "bench")
		if err := reg.Join(roomID, s); err != nil {
			b.Fatalf("join: %v", err)
		}
		sessions = append(sessions, s)
	}

	// Drain recipients to avoid measuring buffer saturation.
	for _, s := range sessions {
		go func(cl *Session) {
			for range cl.Events {
			}
		}(s)
	}

	ev := &Event{Kind: EventCode, Content: "payload", Username: "bench"}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		reg.Broadcast(roomID, ev)
	}
}

func BenchmarkBroadcast_10(b *testing.B)  { benchmarkBroadcast(b, 10) }
func BenchmarkBroadcast_100(b *testing.B) { benchmarkBroadcast(b, 100) }
func BenchmarkBroadcast_500(b *testing.B) { benchmarkBroadcast(b, 500) }
