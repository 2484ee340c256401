package radio

import (
	"errors"
	"testing"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/protocol"
)

// Compile-time check: both transports implement Radio.
var (
	_ Radio = (*Endpoint)(nil)
	_ Radio = (*UDP)(nil)
)

func recv(t *testing.T, e *Endpoint) (protocol.Code, bool) {
	t.Helper()
	select {
	case c, ok := <-e.Receive():
		return c, ok
	default:
		return 0, false
	}
}

func TestBus_BroadcastExcludesSender(t *testing.T) {
	bus := NewBus(4, 1)
	a := bus.Join(1)
	b := bus.Join(1)
	c := bus.Join(1)

	if err := a.Send(protocol.Sync); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if _, ok := recv(t, a); ok {
		t.Error("sender should not receive its own message")
	}
	for name, e := range map[string]*Endpoint{"b": b, "c": c} {
		code, ok := recv(t, e)
		if !ok || code != protocol.Sync {
			t.Errorf("%s got (%v, %v), want sync", name, code, ok)
		}
	}

	st := bus.Stats()
	if st.Sent != 1 || st.Delivered != 2 || st.Dropped != 0 {
		t.Errorf("Stats = %+v", st)
	}
}

func TestBus_GroupsAreIsolated(t *testing.T) {
	bus := NewBus(4, 1)
	a := bus.Join(1)
	other := bus.Join(2)

	_ = a.Send(protocol.Flash)
	if _, ok := recv(t, other); ok {
		t.Error("message leaked across groups")
	}
	if bus.Members(1) != 1 || bus.Members(2) != 1 {
		t.Errorf("members = %d/%d", bus.Members(1), bus.Members(2))
	}
}

func TestBus_FullInboxDrops(t *testing.T) {
	bus := NewBus(2, 1)
	a := bus.Join(1)
	b := bus.Join(1)

	for i := 0; i < 5; i++ {
		if err := a.Send(protocol.Flash); err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
	}
	if len(b.Receive()) != 2 {
		t.Errorf("inbox len = %d, want 2", len(b.Receive()))
	}
	if got := bus.Stats().Dropped; got != 3 {
		t.Errorf("Dropped = %d, want 3", got)
	}
}

func TestBus_Loss(t *testing.T) {
	tests := []struct {
		loss    float64
		wantMin uint64
		wantMax uint64
	}{
		{0, 1000, 1000},
		{1, 0, 0},
		{0.5, 400, 600},
	}
	for _, tt := range tests {
		bus := NewBus(2000, 42)
		bus.SetLoss(tt.loss)
		a := bus.Join(1)
		bus.Join(1)
		for i := 0; i < 1000; i++ {
			_ = a.Send(protocol.Flash)
		}
		got := bus.Stats().Delivered
		if got < tt.wantMin || got > tt.wantMax {
			t.Errorf("loss %.1f: delivered %d, want [%d,%d]", tt.loss, got, tt.wantMin, tt.wantMax)
		}
	}
}

func TestBus_SetLossClamps(t *testing.T) {
	bus := NewBus(0, 1)
	bus.SetLoss(-3)
	if bus.lost() {
		t.Error("negative loss should clamp to 0")
	}
	bus.SetLoss(7)
	if !bus.lost() {
		t.Error("loss > 1 should clamp to 1")
	}
}

func TestEndpoint_Close(t *testing.T) {
	bus := NewBus(4, 1)
	a := bus.Join(1)
	b := bus.Join(1)

	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, ok := <-b.Receive(); ok {
		t.Error("inbox should be closed")
	}
	if err := b.Send(protocol.Flash); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
	if err := a.Send(protocol.Flash); err != nil {
		t.Errorf("remaining member Send: %v", err)
	}
	if bus.Members(1) != 1 {
		t.Errorf("Members = %d, want 1", bus.Members(1))
	}
}
