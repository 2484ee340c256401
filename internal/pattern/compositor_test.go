package pattern

import (
	"errors"
	"testing"
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/clock"
)

// recordingGrid records the brightness written at cell (0,0) for each frame.
type recordingGrid struct {
	w, h    int
	writes  int
	levels  []uint8
	cleared int
}

func (g *recordingGrid) Size() (int, int) { return g.w, g.h }

func (g *recordingGrid) SetBrightness(x, y int, b uint8) {
	g.writes++
	if x == 0 && y == 0 {
		g.levels = append(g.levels, b)
	}
}

func (g *recordingGrid) Clear() { g.cleared++ }

// recordingStrip keeps every shown frame.
type recordingStrip struct {
	n       int
	pending []Color
	frames  [][]Color
	solid   []Color
	showErr error
}

func newRecordingStrip(n int) *recordingStrip {
	return &recordingStrip{n: n, pending: make([]Color, n)}
}

func (s *recordingStrip) Len() int { return s.n }

func (s *recordingStrip) SetPixel(i int, c Color) { s.pending[i] = c }

func (s *recordingStrip) Show() error {
	if s.showErr != nil {
		return s.showErr
	}
	frame := make([]Color, s.n)
	copy(frame, s.pending)
	s.frames = append(s.frames, frame)
	return nil
}

func (s *recordingStrip) ShowColor(c Color) error {
	s.solid = append(s.solid, c)
	return nil
}

func TestGridBrightness_SinglePulse(t *testing.T) {
	d := time.Second
	pulses := []GridPulse{{Duration: d, Peak: 1}}

	b, done := GridBrightness(pulses, 0)
	if b != 255 || done {
		t.Errorf("elapsed=0: got (%d, %v), want (255, false)", b, done)
	}

	for _, e := range []time.Duration{d, d + time.Millisecond, 10 * d} {
		b, done = GridBrightness(pulses, e)
		if b != 0 || !done {
			t.Errorf("elapsed=%v: got (%d, %v), want (0, true)", e, b, done)
		}
	}

	prev := uint8(255)
	for e := time.Duration(0); e < d; e += time.Millisecond {
		b, done := GridBrightness(pulses, e)
		if done {
			t.Fatalf("elapsed=%v: reported done before duration", e)
		}
		if b > prev {
			t.Fatalf("elapsed=%v: brightness rose from %d to %d", e, prev, b)
		}
		prev = b
	}
}

func TestGridBrightness_Delay(t *testing.T) {
	pulses := []GridPulse{{Duration: 100 * time.Millisecond, Delay: 50 * time.Millisecond, Peak: 1}}

	b, done := GridBrightness(pulses, 20*time.Millisecond)
	if b != 0 || done {
		t.Errorf("before delay: got (%d, %v), want (0, false)", b, done)
	}
	b, _ = GridBrightness(pulses, 50*time.Millisecond)
	if b != 255 {
		t.Errorf("at delay: got %d, want 255", b)
	}
	_, done = GridBrightness(pulses, 150*time.Millisecond)
	if !done {
		t.Error("expected done at delay+duration")
	}
}

func TestGridBrightness_AdditiveClamp(t *testing.T) {
	pulses := []GridPulse{
		{Duration: time.Second, Peak: 0.8},
		{Duration: time.Second, Peak: 0.8},
	}
	for e := time.Duration(0); e < time.Second; e += 10 * time.Millisecond {
		b, _ := GridBrightness(pulses, e)
		single, _ := GridBrightness(pulses[:1], e)
		if e == 0 && b != 255 {
			t.Errorf("elapsed=0: got %d, want clamped 255", b)
		}
		if int(b) < int(single) {
			t.Errorf("elapsed=%v: combined %d below single %d", e, b, single)
		}
	}
}

func TestGridBrightness_ZeroDuration(t *testing.T) {
	pulses := []GridPulse{{Duration: 0, Delay: 10 * time.Millisecond, Peak: 1}}
	if _, done := GridBrightness(pulses, 0); done {
		t.Error("zero-duration pulse should wait for its delay")
	}
	if _, done := GridBrightness(pulses, 10*time.Millisecond); !done {
		t.Error("zero-duration pulse should be done once its delay elapsed")
	}
}

func TestStripFrame_Front(t *testing.T) {
	white := Color{R: 255, G: 255, B: 255}
	pulses := []StripPulse{{Duration: time.Second, Width: 5, Color: white}}

	t.Run("elapsed 0 lights only the front pixel", func(t *testing.T) {
		px, done := StripFrame(pulses, 10, 0)
		if done {
			t.Fatal("unexpected done")
		}
		if px[0] != white {
			t.Errorf("pixel 0: got %v, want full white", px[0])
		}
		for i := 1; i < 10; i++ {
			if px[i] != Black {
				t.Errorf("pixel %d ahead of front should be dark, got %v", i, px[i])
			}
		}
	})

	t.Run("trailing fade behind the front", func(t *testing.T) {
		px, _ := StripFrame(pulses, 10, 500*time.Millisecond)
		if px[5] != white {
			t.Errorf("front pixel 5: got %v, want white", px[5])
		}
		if px[4].R != 204 {
			t.Errorf("pixel 4: got %d, want 204", px[4].R)
		}
		if px[0] != Black {
			t.Errorf("pixel 0 is width behind the front, got %v", px[0])
		}
		if px[6] != Black {
			t.Errorf("pixel 6 ahead of the front, got %v", px[6])
		}
	})

	t.Run("terminates at duration*(N+width)/N", func(t *testing.T) {
		if _, done := StripFrame(pulses, 10, 1499*time.Millisecond); done {
			t.Error("should still be active at 1499ms")
		}
		if _, done := StripFrame(pulses, 10, 1500*time.Millisecond); !done {
			t.Error("should be done at 1500ms")
		}
	})
}

func TestStripFrame_AdditiveClamp(t *testing.T) {
	red := Color{R: 200}
	pulses := []StripPulse{
		{Duration: time.Second, Width: 3, Color: red},
		{Duration: time.Second, Width: 3, Color: red},
	}
	px, _ := StripFrame(pulses, 10, 500*time.Millisecond)
	if px[5].R != 255 {
		t.Errorf("overlapping fronts: got %d, want 255", px[5].R)
	}
	for i, p := range px {
		if p.G != 0 || p.B != 0 {
			t.Errorf("pixel %d leaked into other channels: %v", i, p)
		}
	}
}

func TestStripFrame_ZeroWidth(t *testing.T) {
	pulses := []StripPulse{{Duration: time.Second, Width: 0, Color: Color{G: 255}}}
	px, done := StripFrame(pulses, 10, 370*time.Millisecond)
	if done {
		t.Fatal("unexpected done")
	}
	for i, p := range px {
		want := Black
		if i == 3 {
			want = Color{G: 255}
		}
		if p != want {
			t.Errorf("pixel %d: got %v, want %v", i, p, want)
		}
	}
}

func TestRender_Grid(t *testing.T) {
	clk := clock.NewManual(0)
	clk.SetStep(10 * time.Millisecond)
	grid := &recordingGrid{w: 5, h: 5}
	yields := 0
	c := &Compositor{Clock: clk, Grid: grid, Yield: func() { yields++ }}

	var q Queue
	q.EnqueueGrid(GridPulse{Duration: 100 * time.Millisecond, Peak: 1})

	frames, err := c.Render(&q)
	if err != nil {
		t.Fatal(err)
	}
	if frames != 9 {
		t.Errorf("frames: got %d, want 9", frames)
	}
	if grid.writes != frames*25 {
		t.Errorf("expected every cell written each frame, got %d writes", grid.writes)
	}
	if yields != frames {
		t.Errorf("expected one yield per frame, got %d", yields)
	}
	if grid.cleared != 1 {
		t.Errorf("expected grid cleared once, got %d", grid.cleared)
	}
	for i := 1; i < len(grid.levels); i++ {
		if grid.levels[i] > grid.levels[i-1] {
			t.Errorf("frame %d brighter than frame %d", i, i-1)
		}
	}
}

func TestRender_EmptyQueueOnlyClears(t *testing.T) {
	grid := &recordingGrid{w: 5, h: 5}
	c := &Compositor{Clock: clock.NewManual(0), Grid: grid}
	frames, err := c.Render(&Queue{})
	if err != nil {
		t.Fatal(err)
	}
	if frames != 0 || grid.writes != 0 {
		t.Errorf("got %d frames and %d writes, want none", frames, grid.writes)
	}
	if grid.cleared != 1 {
		t.Errorf("expected clear, got %d", grid.cleared)
	}
}

func TestRender_StripIsExclusive(t *testing.T) {
	clk := clock.NewManual(0)
	clk.SetStep(10 * time.Millisecond)
	grid := &recordingGrid{w: 5, h: 5}
	strip := newRecordingStrip(10)
	c := &Compositor{Clock: clk, Grid: grid, Strip: strip}

	var q Queue
	q.EnqueueGrid(GridPulse{Duration: time.Second, Peak: 1})
	q.EnqueueStrip(StripPulse{Duration: time.Second, Width: 5, Color: Color{B: 255}})

	frames, err := c.Render(&q)
	if err != nil {
		t.Fatal(err)
	}
	if frames != 149 {
		t.Errorf("frames: got %d, want 149", frames)
	}
	if len(strip.frames) != frames {
		t.Errorf("shown frames: got %d, want %d", len(strip.frames), frames)
	}
	if grid.writes != 0 || grid.cleared != 0 {
		t.Error("grid must not be touched when a strip is attached")
	}
	if len(strip.solid) != 1 || strip.solid[0] != Black {
		t.Errorf("expected one black frame at the end, got %v", strip.solid)
	}
}

func TestRender_StripError(t *testing.T) {
	clk := clock.NewManual(0)
	clk.SetStep(10 * time.Millisecond)
	strip := newRecordingStrip(10)
	strip.showErr = errors.New("spi: bus gone")
	c := &Compositor{Clock: clk, Strip: strip}

	var q Queue
	q.EnqueueStrip(StripPulse{Duration: time.Second, Width: 5, Color: Color{R: 1}})

	_, err := c.Render(&q)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, strip.showErr) {
		t.Errorf("error should wrap back-end error, got %v", err)
	}
	if len(strip.solid) != 1 {
		t.Error("strip should still be blanked after an error")
	}
}

func TestRender_FramePacing(t *testing.T) {
	clk := clock.NewManual(0)
	clk.SetStep(20 * time.Millisecond)
	var slept []time.Duration
	c := &Compositor{
		Clock:         clk,
		Grid:          &recordingGrid{w: 1, h: 1},
		FrameInterval: 5 * time.Millisecond,
		Sleep:         func(d time.Duration) { slept = append(slept, d) },
	}
	var q Queue
	q.EnqueueGrid(GridPulse{Duration: 100 * time.Millisecond, Peak: 1})

	frames, _ := c.Render(&q)
	if len(slept) != frames {
		t.Errorf("expected one sleep per frame, got %d for %d frames", len(slept), frames)
	}
}
