package display

import (
	"errors"
	"testing"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/pattern"
)

func TestGrid_SetAndClear(t *testing.T) {
	g := NewGrid()
	if w, h := g.Size(); w != 5 || h != 5 {
		t.Fatalf("Size = %dx%d, want 5x5", w, h)
	}
	g.SetBrightness(1, 2, 200)
	g.SetBrightness(9, 9, 255)
	g.SetBrightness(-1, 0, 255)

	snap := g.Snapshot()
	if snap[2][1] != 200 {
		t.Errorf("cell (1,2) = %d, want 200", snap[2][1])
	}
	if g.Level() != 200 {
		t.Errorf("Level = %d, want 200", g.Level())
	}

	g.Clear()
	if g.Level() != 0 {
		t.Error("Clear should darken every cell")
	}
}

func TestStrip_ShowPublishes(t *testing.T) {
	s := NewStrip(3)
	red := pattern.Color{R: 255}
	s.SetPixel(1, red)
	s.SetPixel(7, red)

	if got := s.Snapshot()[1]; got != pattern.Black {
		t.Errorf("pixel visible before Show: %+v", got)
	}
	if err := s.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if got := s.Snapshot()[1]; got != red {
		t.Errorf("pixel 1 = %+v, want red", got)
	}
	s.SetPixel(0, red)
	if got := s.Snapshot()[0]; got != pattern.Black {
		t.Errorf("staged pixel 0 visible before second Show: %+v", got)
	}

	if err := s.ShowColor(pattern.Black); err != nil {
		t.Fatalf("ShowColor: %v", err)
	}
	for i, c := range s.Snapshot() {
		if c != pattern.Black {
			t.Errorf("pixel %d = %+v after blank", i, c)
		}
	}
}

func TestStrip_NegativeLength(t *testing.T) {
	if NewStrip(-4).Len() != 0 {
		t.Error("negative length should clamp to 0")
	}
}

type recordingTx struct {
	frames [][]byte
	err    error
}

func (r *recordingTx) Tx(w, _ []byte) error {
	r.frames = append(r.frames, append([]byte(nil), w...))
	return r.err
}

func TestAPA102_FrameLayout(t *testing.T) {
	tx := &recordingTx{}
	a := NewAPA102(tx, 2, 40)
	if a.Len() != 2 {
		t.Fatalf("Len = %d", a.Len())
	}
	a.SetPixel(0, pattern.Color{R: 1, G: 2, B: 3})
	a.SetPixel(5, pattern.Color{R: 9})
	if err := a.Show(); err != nil {
		t.Fatalf("Show: %v", err)
	}

	want := []byte{
		0, 0, 0, 0,
		0xFF, 3, 2, 1,
		0xFF, 0, 0, 0,
		0xFF, 0xFF, 0xFF, 0xFF,
	}
	got := tx.frames[0]
	if string(got) != string(want) {
		t.Errorf("frame = % x\nwant    % x", got, want)
	}
}

func TestAPA102_EndFrameScalesWithLength(t *testing.T) {
	a := NewAPA102(&recordingTx{}, 100, 31)
	if got, want := len(a.buf), 4+400+7; got != want {
		t.Errorf("buffer = %d bytes, want %d", got, want)
	}
}

func TestAPA102_ShowColorAndClose(t *testing.T) {
	tx := &recordingTx{}
	a := NewAPA102(tx, 1, 31)
	if err := a.ShowColor(pattern.Color{G: 7}); err != nil {
		t.Fatalf("ShowColor: %v", err)
	}
	if tx.frames[0][6] != 7 {
		t.Errorf("green byte = %d, want 7", tx.frames[0][6])
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	last := tx.frames[len(tx.frames)-1]
	if last[5] != 0 || last[6] != 0 || last[7] != 0 {
		t.Errorf("Close should blank the strip, got % x", last)
	}
}

func TestAPA102_TxError(t *testing.T) {
	boom := errors.New("bus fault")
	a := NewAPA102(&recordingTx{err: boom}, 1, 31)
	if err := a.Show(); !errors.Is(err, boom) {
		t.Errorf("Show = %v, want wrapped bus fault", err)
	}
}
