package pattern

import (
	"testing"
	"time"
)

func TestRGB(t *testing.T) {
	c := RGB(DefaultStripColor)
	if c != (Color{R: 0x2A, G: 0x00, B: 0x82}) {
		t.Errorf("got %+v", c)
	}
	if c.Packed() != DefaultStripColor {
		t.Errorf("Packed: got %#x", c.Packed())
	}
	if RGB(0xFF123456) != (Color{R: 0x12, G: 0x34, B: 0x56}) {
		t.Error("bits above 24 should be ignored")
	}
}

func TestNewGridPulse_ScalesLuminosity(t *testing.T) {
	p := NewGridPulse(200*time.Millisecond, 0, 255)
	if p.Peak != 1 {
		t.Errorf("peak: got %v, want 1", p.Peak)
	}
	if p := NewGridPulse(0, 0, 0); p.Peak != 0 {
		t.Errorf("peak: got %v, want 0", p.Peak)
	}
}

func TestNewStripPulse(t *testing.T) {
	p := NewStripPulse(time.Second, 100*time.Millisecond, 7, 0x00FF00)
	if p.Width != 7 || p.Color != (Color{G: 255}) || p.Delay != 100*time.Millisecond {
		t.Errorf("got %+v", p)
	}
}

func TestQueue(t *testing.T) {
	var q Queue
	q.EnqueueGrid(GridPulse{Duration: 1})
	q.EnqueueGrid(GridPulse{Duration: 2})
	q.EnqueueStrip(StripPulse{Duration: 3})

	if q.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", q.Len())
	}
	if got := q.GridPulses(); got[0].Duration != 1 || got[1].Duration != 2 {
		t.Errorf("insertion order lost: %+v", got)
	}

	q.Clear()
	if q.Len() != 0 {
		t.Errorf("Len after Clear: got %d", q.Len())
	}
	q.EnqueueStrip(StripPulse{Duration: 4})
	if got := q.StripPulses(); len(got) != 1 || got[0].Duration != 4 {
		t.Errorf("queue not reusable after Clear: %+v", got)
	}
}
