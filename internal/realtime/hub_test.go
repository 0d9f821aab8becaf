package realtime

import (
	"sync"
	"testing"
	"time"
)

// fakeConn records pushed events and close calls.
type fakeConn struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ev, ok := v.(Event); ok {
		f.events = append(f.events, ev)
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) snapshot() ([]Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...), f.closed
}

func TestHub_SendWithoutChannel(t *testing.T) {
	h := NewHub()
	if h.Send(1, EventOrderStatusUpdated, nil) {
		t.Fatal("Send should report false when no channel is registered")
	}
}

func TestHub_RegisterReplaces(t *testing.T) {
	h := NewHub()
	old, repl := &fakeConn{}, &fakeConn{}
	h.Register(7, old)
	h.Register(7, repl)

	if !h.Send(7, EventNotificationsRead, map[string]int{"count": 2}) {
		t.Fatal("Send to registered channel failed")
	}
	oldEvents, _ := old.snapshot()
	newEvents, _ := repl.snapshot()
	if len(oldEvents) != 0 {
		t.Fatalf("replaced channel received %d events, want 0", len(oldEvents))
	}
	if len(newEvents) != 1 || newEvents[0].Type != EventNotificationsRead {
		t.Fatalf("unexpected events on current channel: %+v", newEvents)
	}
}

func TestHub_StaleUnregisterIsNoop(t *testing.T) {
	h := NewHub()
	old, repl := &fakeConn{}, &fakeConn{}
	h.Register(7, old)
	h.Register(7, repl)

	// The replaced channel closing later must not evict the current one.
	h.Unregister(old)
	if !h.Send(7, EventOrderStatusUpdated, nil) {
		t.Fatal("current channel was evicted by a stale unregister")
	}

	h.Unregister(repl)
	if h.Send(7, EventOrderStatusUpdated, nil) {
		t.Fatal("Send should fail after the current channel unregisters")
	}
}

func TestHub_ForceLogoutDeliversEventAndCloses(t *testing.T) {
	h := NewHub(WithGraceClose(10*time.Millisecond), WithForcedOutTTL(time.Minute))
	defer h.Close()
	c := &fakeConn{}
	h.Register(3, c)

	if !h.ForceLogout(3, ReasonAccountDeleted) {
		t.Fatal("ForceLogout should report delivery on a live channel")
	}

	events, _ := c.snapshot()
	if len(events) != 1 || events[0].Type != EventForceLogout {
		t.Fatalf("expected exactly one FORCE_LOGOUT event, got %+v", events)
	}
	payload, ok := events[0].Data.(ForceLogoutPayload)
	if !ok || payload.Reason != ReasonAccountDeleted {
		t.Fatalf("unexpected payload: %+v", events[0].Data)
	}

	if reason, ok := h.RecentlyForcedOut(3); !ok || reason != ReasonAccountDeleted {
		t.Fatalf("RecentlyForcedOut = %q, %v; want marker present", reason, ok)
	}

	// The grace close fires after the configured delay.
	deadline := time.After(time.Second)
	for {
		if _, closed := c.snapshot(); closed {
			break
		}
		select {
		case <-deadline:
			t.Fatal("channel was not closed after the grace period")
		case <-time.After(time.Millisecond):
		}
	}
	if h.Send(3, EventOrderStatusUpdated, nil) {
		t.Fatal("channel should be unregistered after the grace close")
	}
}

func TestHub_ForceLogoutWithoutChannelStillMarks(t *testing.T) {
	h := NewHub(WithForcedOutTTL(time.Minute))
	defer h.Close()

	if h.ForceLogout(9, ReasonAccountBlocked) {
		t.Fatal("ForceLogout should report false with no live channel")
	}
	if _, ok := h.RecentlyForcedOut(9); !ok {
		t.Fatal("marker should be set even without a live channel")
	}
}

func TestHub_ForcedOutMarkerExpires(t *testing.T) {
	h := NewHub(WithForcedOutTTL(10 * time.Millisecond))
	defer h.Close()

	h.ForceLogout(4, ReasonAccountBlocked)
	deadline := time.After(time.Second)
	for {
		if _, ok := h.RecentlyForcedOut(4); !ok {
			return
		}
		select {
		case <-deadline:
			t.Fatal("forced-out marker never expired")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestHub_CancelForcedLogout(t *testing.T) {
	h := NewHub(WithGraceClose(50*time.Millisecond), WithForcedOutTTL(time.Minute))
	defer h.Close()
	c := &fakeConn{}
	h.Register(5, c)

	h.ForceLogout(5, ReasonAccountBlocked)
	h.CancelForcedLogout(5)

	if _, ok := h.RecentlyForcedOut(5); ok {
		t.Fatal("marker should be cleared after cancellation")
	}

	// The pending grace close must not fire.
	time.Sleep(100 * time.Millisecond)
	if _, closed := c.snapshot(); closed {
		t.Fatal("channel was closed despite cancellation")
	}
	if !h.Send(5, EventOrderStatusUpdated, nil) {
		t.Fatal("channel should still be registered after cancellation")
	}
}
