package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	select {
	case ev := <-ch:
		if ev == nil {
			t.Fatalf("received nil event")
		}
		if ev.Kind != kind {
			t.Fatalf("expected event kind %v, got %v (%+v)", kind, ev.Kind, ev)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("expected event kind %v not received", kind)
		return nil
	}
}

func mustNoEvent(t *testing.T, ch <-chan *Event) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
