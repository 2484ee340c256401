package pattern

import (
	"fmt"
	"math"
	"time"

	"github.com/LISSConsulting/LISSTech.Luciole/internal/clock"
)

// Grid is a fixed-size single-channel brightness display.
type Grid interface {
	Size() (width, height int)
	SetBrightness(x, y int, brightness uint8)
	Clear()
}

// Strip is an addressable RGB LED strip. Pixels set with SetPixel become
// visible on Show.
type Strip interface {
	Len() int
	SetPixel(i int, c Color)
	Show() error
	ShowColor(c Color) error
}

// Compositor renders the queued pulses of one flash. Render blocks for the
// real duration of the animation and cannot be cancelled.
//
// When Strip is set it is used exclusively; otherwise pulses go to Grid.
type Compositor struct {
	Clock clock.Clock
	Grid  Grid
	Strip Strip

	// Yield is called once per frame. Nodes use it to service inbound
	// messages while the animation owns the goroutine.
	Yield func()

	// FrameInterval paces the loop. Zero polls the clock as fast as possible.
	FrameInterval time.Duration

	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)

	frame stripFrame
}

// Render plays q onto the active back-end and returns the number of frames
// pushed. A back-end error stops the animation; the display is still
// cleared.
func (c *Compositor) Render(q *Queue) (int, error) {
	if c.Strip != nil {
		return c.renderStrip(q.StripPulses())
	}
	return c.renderGrid(q.GridPulses()), nil
}

func (c *Compositor) renderGrid(pulses []GridPulse) int {
	var w, h int
	if c.Grid != nil {
		w, h = c.Grid.Size()
	}

	frames := 0
	t0 := c.Clock.Now()
	for {
		brightness, done := GridBrightness(pulses, c.Clock.Now()-t0)
		if done {
			break
		}
		for x := 0; x < w; x++ {
			for y := 0; y < h; y++ {
				c.Grid.SetBrightness(x, y, brightness)
			}
		}
		frames++
		c.pace()
	}

	if c.Grid != nil {
		c.Grid.Clear()
	}
	return frames
}

func (c *Compositor) renderStrip(pulses []StripPulse) (int, error) {
	n := c.Strip.Len()
	c.frame.resize(n)

	frames := 0
	var renderErr error
	t0 := c.Clock.Now()
	for {
		if c.frame.composite(pulses, c.Clock.Now()-t0) {
			break
		}
		for i := 0; i < n; i++ {
			c.Strip.SetPixel(i, c.frame.pixels[i])
		}
		if err := c.Strip.Show(); err != nil {
			renderErr = fmt.Errorf("pattern: show frame %d: %w", frames, err)
			break
		}
		frames++
		c.pace()
	}

	if err := c.Strip.ShowColor(Black); err != nil && renderErr == nil {
		renderErr = fmt.Errorf("pattern: blank strip: %w", err)
	}
	return frames, renderErr
}

func (c *Compositor) pace() {
	if c.Yield != nil {
		c.Yield()
	}
	if c.FrameInterval > 0 {
		sleep := c.Sleep
		if sleep == nil {
			sleep = time.Sleep
		}
		sleep(c.FrameInterval)
	}
}

// GridBrightness composites grid pulses at elapsed time since the start of
// the animation. It reports done once every pulse has fully elapsed.
func GridBrightness(pulses []GridPulse, elapsed time.Duration) (brightness uint8, done bool) {
	var sum float64
	done = true
	for _, p := range pulses {
		e := elapsed - p.Delay
		if e >= p.Duration {
			continue
		}
		done = false
		if e >= 0 {
			sum += math.Max(0, p.Peak-float64(e)/float64(p.Duration))
		}
	}
	return toByte(sum * 255), done
}

// StripFrame composites strip pulses for a strip of n pixels at elapsed
// time since the start of the animation.
func StripFrame(pulses []StripPulse, n int, elapsed time.Duration) ([]Color, bool) {
	var f stripFrame
	f.resize(n)
	done := f.composite(pulses, elapsed)
	return f.pixels, done
}

// stripFrame holds per-frame buffers reused across frames.
type stripFrame struct {
	acc    [][3]int
	pixels []Color
}

func (f *stripFrame) resize(n int) {
	if cap(f.acc) < n {
		f.acc = make([][3]int, n)
		f.pixels = make([]Color, n)
	}
	f.acc = f.acc[:n]
	f.pixels = f.pixels[:n]
}

func (f *stripFrame) composite(pulses []StripPulse, elapsed time.Duration) bool {
	for i := range f.acc {
		f.acc[i] = [3]int{}
	}

	n := len(f.acc)
	done := true
	for _, p := range pulses {
		e := elapsed - p.Delay
		if p.Duration <= 0 {
			if e < 0 {
				done = false
			}
			continue
		}

		front := float64(e) / float64(p.Duration) * float64(n)
		if front >= float64(n)+p.Width {
			continue
		}
		done = false
		f.addFront(p, front)
	}

	for i, a := range f.acc {
		f.pixels[i] = Color{R: clampChannel(a[0]), G: clampChannel(a[1]), B: clampChannel(a[2])}
	}
	return done
}

// addFront accumulates one pulse: full color at the front, fading to zero
// Width pixels behind it, nothing ahead of it.
func (f *stripFrame) addFront(p StripPulse, front float64) {
	n := len(f.acc)
	if p.Width <= 0 {
		i := int(math.Floor(front))
		if i >= 0 && i < n {
			f.add(i, p.Color, 1)
		}
		return
	}

	lo := int(math.Ceil(front - p.Width))
	hi := int(math.Floor(front))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	for i := lo; i <= hi; i++ {
		lum := math.Max(0, 1-(front-float64(i))/p.Width)
		f.add(i, p.Color, lum)
	}
}

func (f *stripFrame) add(i int, c Color, lum float64) {
	f.acc[i][0] += int(math.Floor(float64(c.R) * lum))
	f.acc[i][1] += int(math.Floor(float64(c.G) * lum))
	f.acc[i][2] += int(math.Floor(float64(c.B) * lum))
}

func clampChannel(v int) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}

// toByte floors v into [0,255].
func toByte(v float64) uint8 {
	if v >= 255 {
		return 255
	}
	if v <= 0 {
		return 0
	}
	return uint8(math.Floor(v))
}
